package media

import (
	"encoding/json"
	"strings"
)

// AudioAttachment is the transport metadata of an incoming audio file.
type AudioAttachment struct {
	FileID    string
	Title     string
	Performer string
	Duration  int
	Size      int64
}

// PhotoAttachment is the transport metadata of an incoming photo.
// For multi-size photos the transport is expected to pass the largest one.
type PhotoAttachment struct {
	FileID string
	Width  int
	Height int
	Size   int64
}

// VideoAttachment is the transport metadata of an incoming video file.
type VideoAttachment struct {
	FileID    string
	Caption   string
	Width     int
	Height    int
	Duration  int
	Size      int64
	Thumbnail *PhotoAttachment
}

// BuildAudio creates an audio record from the attachment and the uploader.
func BuildAudio(att AudioAttachment, user User, audioURL string, tags ...string) Audio {
	id := strings.TrimSpace(att.FileID)
	if id == "" {
		id = audioURL
	}
	return Audio{
		ID:           id,
		UserID:       user.ID,
		UserName:     user.Name,
		Title:        att.Title,
		Author:       att.Performer,
		AudioURLPath: audioURL,
		Duration:     nonNegative(att.Duration),
		TagIDs:       tagSet(tags),
	}
}

// WithArtwork overrides the artwork URL and leaves every other field untouched.
func WithArtwork(a Audio, artworkURL string) Audio {
	out := a.Clone()
	out.ArtworkURLPath = artworkURL
	return out
}

// BuildVideo creates a video record under the given explicit id.
func BuildVideo(id string, att VideoAttachment, user User, videoURL string, tags ...string) Video {
	return Video{
		ID:           id,
		UserID:       user.ID,
		UserName:     user.Name,
		Description:  att.Caption,
		VideoURLPath: videoURL,
		Width:        nonNegative(att.Width),
		Height:       nonNegative(att.Height),
		Duration:     nonNegative(att.Duration),
		TagIDs:       tagSet(tags),
	}
}

// WithThumbnail overrides the thumbnail URL and leaves every other field untouched.
func WithThumbnail(v Video, thumbnailURL string) Video {
	out := v.Clone()
	out.ThumbnailURLPath = thumbnailURL
	return out
}

// Summary renders the record as shown in the confirmation prompt.
func Summary(r Record) string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.RecordID()
	}
	return string(data)
}

func tagSet(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{DefaultTag}
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
