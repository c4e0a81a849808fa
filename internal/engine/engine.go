// Package engine drives the per-chat ingestion workflow: it checks each event
// against the conversation's current step, runs the matching transition and
// recovers failed transitions back to the start menu.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/internal/conversation"
	"github.com/m3rciful/mediabot/internal/media"
	"github.com/m3rciful/mediabot/internal/upload"
)

// Button is an inline button; Key is delivered back as the callback key.
type Button struct {
	Text string
	Key  string
}

// Messenger sends prompts and fetches attachments.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons []Button) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AttachmentStream(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// RecordStore persists finished records; Put is an idempotent upsert by id.
type RecordStore interface {
	Put(ctx context.Context, collection, id string, record media.Record) error
}

// UserDirectory resolves a user id to a display name.
type UserDirectory interface {
	LookupName(ctx context.Context, userID string) (string, error)
}

// Uploader moves attachments into blob storage.
type Uploader interface {
	Upload(ctx context.Context, job upload.Job) (string, error)
	UploadAll(ctx context.Context, jobs ...upload.Job) ([]string, error)
}

// Deps are the collaborators of the engine.
type Deps struct {
	Store     conversation.Store
	Messenger Messenger
	Uploader  Uploader
	Records   RecordStore
	Users     UserDirectory
}

// Options selects the enabled media kinds and storage layout.
type Options struct {
	EnableVideo bool
	// Tags overrides the default tag set of new records.
	Tags []string

	AudioCollection string
	VideoCollection string

	AudioDir     string
	PhotoDir     string
	VideoDir     string
	ThumbnailDir string

	// NewID generates explicit video ids.
	NewID func() string
}

func (o *Options) defaults() {
	if o.AudioCollection == "" {
		o.AudioCollection = media.CollectionAudio
	}
	if o.VideoCollection == "" {
		o.VideoCollection = media.CollectionVideo
	}
	if o.AudioDir == "" {
		o.AudioDir = "audio"
	}
	if o.PhotoDir == "" {
		o.PhotoDir = "photo"
	}
	if o.VideoDir == "" {
		o.VideoDir = "video"
	}
	if o.ThumbnailDir == "" {
		o.ThumbnailDir = "thumbnail"
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

type row struct {
	step conversation.Step
	kind Kind
}

type transition func(ctx context.Context, t *turn, ev Event) error

// Engine is the conversation state machine.
type Engine struct {
	store     conversation.Store
	messenger Messenger
	uploader  Uploader
	records   RecordStore
	users     UserDirectory
	opts      Options

	locks *conversation.KeyedMutex
	rows  map[row]transition
}

// New validates deps and installs the transition table.
func New(deps Deps, opts Options) (*Engine, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("engine: nil conversation store")
	case deps.Messenger == nil:
		return nil, errors.New("engine: nil messenger")
	case deps.Uploader == nil:
		return nil, errors.New("engine: nil uploader")
	case deps.Records == nil:
		return nil, errors.New("engine: nil record store")
	case deps.Users == nil:
		return nil, errors.New("engine: nil user directory")
	}
	opts.defaults()

	e := &Engine{
		store:     deps.Store,
		messenger: deps.Messenger,
		uploader:  deps.Uploader,
		records:   deps.Records,
		users:     deps.Users,
		opts:      opts,
		locks:     conversation.NewKeyedMutex(),
	}
	e.install()
	return e, nil
}

func (e *Engine) install() {
	e.rows = map[row]transition{
		{conversation.Initial, EventLogin}:         e.chooseLogin,
		{conversation.LoginChosen, EventText}:      e.login,
		{conversation.Initial, EventSelectAudio}:   e.chooseAudio,
		{conversation.AudioChosen, EventAudio}:     e.receiveAudio,
		{conversation.AudioReceived, EventPhoto}:   e.receivePhoto,
		{conversation.PhotoReceived, EventConfirm}: e.confirmAudio,
	}
	if e.opts.EnableVideo {
		e.rows[row{conversation.Initial, EventSelectVideo}] = e.chooseVideo
		e.rows[row{conversation.VideoChosen, EventVideo}] = e.receiveVideo
		e.rows[row{conversation.VideoReceived, EventConfirm}] = e.confirmVideo
	}
	for _, st := range conversation.Steps() {
		if st != conversation.Initial {
			e.rows[row{st, EventCancel}] = e.cancel
		}
	}
}

// Accepts reports whether kind has a transition from step.
func (e *Engine) Accepts(step conversation.Step, kind Kind) bool {
	_, ok := e.rows[row{step, kind}]
	return ok
}

// Handle processes one event to completion. Events for the same chat are
// serialised; events that do not match the current step are ignored.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	ctx = logger.WithChat(ctx, ev.ChatID)
	unlock := e.locks.Lock(ev.ChatID)
	defer unlock()

	conv, exists, err := e.store.Get(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("engine: load conversation %d: %w", ev.ChatID, err)
	}

	fn, err := e.route(conv, exists, ev)
	if errors.Is(err, ErrIllegalEvent) {
		logger.Debug(ctx, "engine", "fsm.skip",
			slog.String("status", "skip"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("step", stepName(conv, exists)),
			slog.String("op", ev.Kind.String()),
		)
		return nil
	}

	start := time.Now()
	t := &turn{e: e, chatID: ev.ChatID, conv: conv}
	if err := fn(ctx, t, ev); err != nil {
		if rerr := e.recover(ctx, t, ev, err); rerr != nil {
			return rerr
		}
	}

	logger.Info(ctx, "engine", "fsm.transition",
		slog.String("status", "ok"),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("op", ev.Kind.String()),
		slog.String("from", stepName(conv, exists)),
		slog.String("to", t.conv.Step.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (e *Engine) route(conv conversation.Conversation, exists bool, ev Event) (transition, error) {
	if !ev.hasPayload() {
		return nil, ErrIllegalEvent
	}
	if !exists {
		if ev.Kind == EventStart {
			return e.start, nil
		}
		return nil, ErrIllegalEvent
	}
	fn, ok := e.rows[row{conv.Step, ev.Kind}]
	if !ok {
		return nil, ErrIllegalEvent
	}
	return fn, nil
}

// recover turns a recoverable failure into a reset to the start menu.
// Anything else is returned unchanged and leaves the conversation as it was.
func (e *Engine) recover(ctx context.Context, t *turn, ev Event, cause error) error {
	code := FailureKind(cause)
	if !recoverable(cause) {
		logger.Error(ctx, "engine", "fsm.error",
			slog.String("status", "fail"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("op", ev.Kind.String()),
			slog.String("step", t.conv.Step.String()),
			slog.String("err", cause.Error()),
			slog.String("err_code", code),
		)
		return cause
	}

	logger.Warn(ctx, "engine", "fsm.recover",
		slog.String("status", "fail"),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("op", ev.Kind.String()),
		slog.String("step", t.conv.Step.String()),
		slog.String("err", cause.Error()),
		slog.String("err_code", code),
	)

	patches := []conversation.Patch{conversation.SetStep(conversation.Initial), conversation.ClearMedia()}
	var lookupErr *LookupError
	if errors.As(cause, &lookupErr) {
		patches = append(patches, conversation.SetUser(nil))
	}
	if err := t.finish(ctx, e.failedPrompt(), patches...); err != nil {
		return fmt.Errorf("engine: reset after %s: %w", code, err)
	}
	return nil
}

func stepName(conv conversation.Conversation, exists bool) string {
	if !exists {
		return "absent"
	}
	return conv.Step.String()
}
