package engine

import (
	"fmt"

	"github.com/m3rciful/mediabot/internal/media"
)

// Kind is the type of an inbound event.
type Kind uint8

const (
	EventStart Kind = iota
	EventLogin
	EventText
	EventSelectAudio
	EventAudio
	EventPhoto
	EventSelectVideo
	EventVideo
	EventConfirm
	EventCancel
)

var kindNames = map[Kind]string{
	EventStart:       "start",
	EventLogin:       "login",
	EventText:        "text",
	EventSelectAudio: "select_audio",
	EventAudio:       "audio",
	EventPhoto:       "photo",
	EventSelectVideo: "select_video",
	EventVideo:       "video",
	EventConfirm:     "confirm",
	EventCancel:      "cancel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is one inbound interaction for a chat. Only the payload field that
// matches Kind is read.
type Event struct {
	Kind   Kind
	ChatID int64

	Text  string
	Audio *media.AudioAttachment
	Photo *media.PhotoAttachment
	Video *media.VideoAttachment
}

func (ev Event) hasPayload() bool {
	switch ev.Kind {
	case EventAudio:
		return ev.Audio != nil && ev.Audio.FileID != ""
	case EventPhoto:
		return ev.Photo != nil && ev.Photo.FileID != ""
	case EventVideo:
		return ev.Video != nil && ev.Video.FileID != ""
	}
	return true
}
