package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/mediabot/core/telegram/sender"
	"github.com/m3rciful/mediabot/internal/engine"
)

// API is the part of *tele.Bot the messenger needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	File(file *tele.File) (io.ReadCloser, error)
}

// Messenger implements engine.Messenger on top of telebot.
type Messenger struct {
	api        API
	dispatcher *tgsender.Dispatcher
	perRow     int
}

// NewMessenger returns a messenger; deletes are queued on dispatcher when it is not nil.
func NewMessenger(api API, dispatcher *tgsender.Dispatcher) *Messenger {
	return &Messenger{api: api, dispatcher: dispatcher, perRow: 3}
}

// SendMessage sends text with buttons laid out in rows and returns the message id.
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string, buttons []engine.Button) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var opts []interface{}
	if markup := inlineMarkup(buttons, m.perRow); markup != nil {
		opts = append(opts, markup)
	}
	msg, err := m.api.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// DeleteMessage removes a prompt. With a dispatcher the call is queued and
// retried in the background; only enqueue failures are reported.
func (m *Messenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	stored := &tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	if m.dispatcher == nil {
		return m.api.Delete(stored)
	}
	endpoint := "chat:" + strconv.FormatInt(chatID, 10)
	return m.dispatcher.Enqueue(context.WithoutCancel(ctx), "deleteMessage", endpoint, func() error {
		return m.api.Delete(stored)
	})
}

// AttachmentStream opens the file behind fileID for reading.
func (m *Messenger) AttachmentStream(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := m.api.File(&tele.File{FileID: fileID})
	if err != nil {
		logger.Warn(ctx, "tg", "file.open",
			slog.String("status", "fail"),
			slog.String("payload", fileID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("telegram: open file %s: %w", fileID, err)
	}
	return &ctxReader{ctx: ctx, rc: rc}, nil
}

// ctxReader stops a download once ctx is done.
type ctxReader struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *ctxReader) Close() error { return r.rc.Close() }

func inlineMarkup(buttons []engine.Button, perRow int) *tele.ReplyMarkup {
	btns := make([]keyboard.Button, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, keyboard.Button{Text: b.Text, Key: b.Key})
	}
	return keyboard.Inline(btns, perRow)
}
