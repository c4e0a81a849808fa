package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/mediabot/core/telegram"
	tgsender "github.com/m3rciful/mediabot/core/telegram/sender"
	"github.com/m3rciful/mediabot/internal/engine"
)

type fakeAPI struct {
	sent    []string
	markups []*tele.ReplyMarkup
	deleted []tele.Editable
	files   map[string]string
	sendErr error
}

func (f *fakeAPI) Send(_ tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, what.(string))
	var markup *tele.ReplyMarkup
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			markup = m
		}
	}
	f.markups = append(f.markups, markup)
	return &tele.Message{ID: len(f.sent)}, nil
}

func (f *fakeAPI) Delete(msg tele.Editable) error {
	f.deleted = append(f.deleted, msg)
	return nil
}

func (f *fakeAPI) File(file *tele.File) (io.ReadCloser, error) {
	body, ok := f.files[file.FileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestMessengerSendBuildsInlineKeyboard(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api, nil)

	id, err := m.SendMessage(context.Background(), 7, "hello", []engine.Button{
		{Text: "Login", Key: engine.KeyLogin},
		{Text: "Audio", Key: engine.KeyAudio},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	markup := api.markups[0]
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, engine.KeyAudio, markup.InlineKeyboard[0][1].Unique)

	_, err = m.SendMessage(context.Background(), 7, "plain", nil)
	require.NoError(t, err)
	assert.Nil(t, api.markups[1])
}

func TestMessengerSendError(t *testing.T) {
	m := NewMessenger(&fakeAPI{sendErr: errors.New("blocked")}, nil)
	_, err := m.SendMessage(context.Background(), 7, "x", nil)
	assert.Error(t, err)
}

func TestMessengerDeleteDirectAndQueued(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, NewMessenger(api, nil).DeleteMessage(context.Background(), 7, 12))
	require.Len(t, api.deleted, 1)
	msgID, chatID := api.deleted[0].MessageSig()
	assert.Equal(t, "12", msgID)
	assert.Equal(t, int64(7), chatID)

	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	require.NoError(t, NewMessenger(api, d).DeleteMessage(context.Background(), 7, 13))
	d.Close()
	assert.Len(t, api.deleted, 2)
}

func TestMessengerAttachmentStream(t *testing.T) {
	m := NewMessenger(&fakeAPI{files: map[string]string{"f1": "bytes"}}, nil)

	rc, err := m.AttachmentStream(context.Background(), "f1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
	require.NoError(t, rc.Close())

	_, err = m.AttachmentStream(context.Background(), "missing")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rc, err = m.AttachmentStream(ctx, "f1")
	require.NoError(t, err)
	cancel()
	_, err = rc.Read(make([]byte, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEventFromMessages(t *testing.T) {
	chat := &tele.Chat{ID: 5}

	_, ok := eventFrom(engine.EventText, nil, &tele.Message{Text: "42"})
	assert.False(t, ok)

	ev, ok := eventFrom(engine.EventText, chat, &tele.Message{Text: "42"})
	require.True(t, ok)
	assert.Equal(t, engine.Event{Kind: engine.EventText, ChatID: 5, Text: "42"}, ev)

	audio := &tele.Audio{File: tele.File{FileID: "a1", FileSize: 10}, Title: "Song", Performer: "Band", Duration: 90}
	ev, _ = eventFrom(engine.EventAudio, chat, &tele.Message{Audio: audio})
	require.NotNil(t, ev.Audio)
	assert.Equal(t, "a1", ev.Audio.FileID)
	assert.Equal(t, "Band", ev.Audio.Performer)
	assert.Equal(t, int64(10), ev.Audio.Size)

	photo := &tele.Photo{File: tele.File{FileID: "p1"}, Width: 800, Height: 600}
	ev, _ = eventFrom(engine.EventPhoto, chat, &tele.Message{Photo: photo})
	require.NotNil(t, ev.Photo)
	assert.Equal(t, 800, ev.Photo.Width)

	video := &tele.Video{
		File:      tele.File{FileID: "v1"},
		Width:     1280,
		Height:    720,
		Duration:  30,
		Thumbnail: &tele.Photo{File: tele.File{FileID: "t1"}, Width: 320, Height: 180},
	}
	ev, _ = eventFrom(engine.EventVideo, chat, &tele.Message{Video: video, Caption: "clip"})
	require.NotNil(t, ev.Video)
	assert.Equal(t, "clip", ev.Video.Caption)
	require.NotNil(t, ev.Video.Thumbnail)
	assert.Equal(t, "t1", ev.Video.Thumbnail.FileID)

	ev, _ = eventFrom(engine.EventAudio, chat, &tele.Message{Text: "not audio"})
	assert.Nil(t, ev.Audio)

	ev, ok = eventFrom(engine.EventConfirm, chat, nil)
	require.True(t, ok)
	assert.Equal(t, engine.EventConfirm, ev.Kind)
}

type recordingHandler struct{ events []engine.Event }

func (h *recordingHandler) Handle(_ context.Context, ev engine.Event) error {
	h.events = append(h.events, ev)
	return nil
}

func TestRegisterRespectsVideoFlag(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, NewRouter(&recordingHandler{}, false).Register(reg))

	_, _, ok := reg.LookupCommand("/video")
	assert.False(t, ok)
	assert.Equal(t, []string{engine.KeyAudio, engine.KeyCancel, engine.KeyConfirm, engine.KeyLogin}, reg.ListCallbacks())

	reg = tg.NewRegistry()
	require.NoError(t, NewRouter(&recordingHandler{}, true).Register(reg))
	_, _, ok = reg.LookupCommand("/video")
	assert.True(t, ok)
	assert.Contains(t, reg.ListCallbacks(), engine.KeyVideo)
	assert.Len(t, reg.ListCommands(true), 6)
}
