package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/mediabot/internal/engine"
	"github.com/m3rciful/mediabot/internal/media"
)

// eventFrom builds the engine event for kind. Attachment kinds copy the
// attachment metadata out of msg; a missing chat drops the update.
func eventFrom(kind engine.Kind, chat *tele.Chat, msg *tele.Message) (engine.Event, bool) {
	if chat == nil {
		return engine.Event{}, false
	}
	ev := engine.Event{Kind: kind, ChatID: chat.ID}
	if msg == nil {
		return ev, true
	}
	switch kind {
	case engine.EventText:
		ev.Text = msg.Text
	case engine.EventAudio:
		ev.Audio = audioAttachment(msg.Audio)
	case engine.EventPhoto:
		ev.Photo = photoAttachment(msg.Photo)
	case engine.EventVideo:
		ev.Video = videoAttachment(msg.Video, msg.Caption)
	}
	return ev, true
}

func audioAttachment(a *tele.Audio) *media.AudioAttachment {
	if a == nil {
		return nil
	}
	return &media.AudioAttachment{
		FileID:    a.FileID,
		Title:     a.Title,
		Performer: a.Performer,
		Duration:  a.Duration,
		Size:      int64(a.FileSize),
	}
}

// photoAttachment expects telebot's Photo, which already holds the largest size.
func photoAttachment(p *tele.Photo) *media.PhotoAttachment {
	if p == nil {
		return nil
	}
	return &media.PhotoAttachment{
		FileID: p.FileID,
		Width:  p.Width,
		Height: p.Height,
		Size:   int64(p.FileSize),
	}
}

func videoAttachment(v *tele.Video, caption string) *media.VideoAttachment {
	if v == nil {
		return nil
	}
	return &media.VideoAttachment{
		FileID:    v.FileID,
		Caption:   caption,
		Width:     v.Width,
		Height:    v.Height,
		Duration:  v.Duration,
		Size:      int64(v.FileSize),
		Thumbnail: photoAttachment(v.Thumbnail),
	}
}
