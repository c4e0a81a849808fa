// Package media holds the records produced by the ingestion flow and the pure
// builders that normalise transport attachments into them.
package media

import "errors"

// DefaultTag is applied to every record whose tag set is empty.
const DefaultTag = "highvibe"

const (
	// CollectionAudio names the record collection for audio tracks.
	CollectionAudio = "audio"
	// CollectionVideo names the record collection for videos.
	CollectionVideo = "video"
)

// ErrUserNotFound is returned by user lookups when the id is unknown.
var ErrUserNotFound = errors.New("media: user not found")

// User is the uploader resolved during login.
type User struct {
	ID   string `json:"userId"`
	Name string `json:"userName"`
}

// Record is implemented only by Audio and Video.
type Record interface {
	RecordID() string
	Collection() string
	isRecord()
}

// Audio is the persisted shape of an uploaded track.
type Audio struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	UserName       string   `json:"userName"`
	Title          string   `json:"title"`
	SubTitle       string   `json:"subTitle"`
	Author         string   `json:"author"`
	ArtworkURLPath string   `json:"artworkUrlPath"`
	AudioURLPath   string   `json:"audioUrlPath"`
	Duration       int      `json:"duration"`
	TagIDs         []string `json:"tagIds"`
}

// RecordID returns the document id.
func (a Audio) RecordID() string { return a.ID }

// Collection returns the audio collection name.
func (a Audio) Collection() string { return CollectionAudio }

func (Audio) isRecord() {}

// Clone returns a deep copy so the caller can hand it off without aliasing tags.
func (a Audio) Clone() Audio {
	a.TagIDs = append([]string(nil), a.TagIDs...)
	return a
}

// Video is the persisted shape of an uploaded video with its thumbnail.
type Video struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	UserName         string   `json:"userName"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Author           string   `json:"author"`
	VideoURLPath     string   `json:"videoUrlPath"`
	ThumbnailURLPath string   `json:"thumbnailUrlPath"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	Duration         int      `json:"duration"`
	TagIDs           []string `json:"tagIds"`
}

// RecordID returns the document id.
func (v Video) RecordID() string { return v.ID }

// Collection returns the video collection name.
func (v Video) Collection() string { return CollectionVideo }

func (Video) isRecord() {}

// Clone returns a deep copy of the video record.
func (v Video) Clone() Video {
	v.TagIDs = append([]string(nil), v.TagIDs...)
	return v
}
