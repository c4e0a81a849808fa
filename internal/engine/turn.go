package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/internal/conversation"
	"github.com/m3rciful/mediabot/internal/media"
)

// turn carries one transition's view of a chat. conv tracks what has been
// written to the store so far.
type turn struct {
	e      *Engine
	chatID int64
	conv   conversation.Conversation
}

// prompt sends p, retires the previous prompt and then stores patches along
// with the new prompt id. A failed send changes nothing.
func (t *turn) prompt(ctx context.Context, p prompt, patches ...conversation.Patch) error {
	id, err := t.e.messenger.SendMessage(ctx, t.chatID, p.text, p.buttons)
	if err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}
	t.retire(ctx)
	return t.save(ctx, append(patches, conversation.SetLastPrompt(id))...)
}

// finish is prompt for transitions that end in Initial. The patches are
// stored even when the prompt cannot be delivered.
func (t *turn) finish(ctx context.Context, p prompt, patches ...conversation.Patch) error {
	id, sendErr := t.e.messenger.SendMessage(ctx, t.chatID, p.text, p.buttons)
	if sendErr == nil {
		t.retire(ctx)
		patches = append(patches, conversation.SetLastPrompt(id))
	}
	if err := t.save(ctx, patches...); err != nil {
		return err
	}
	if sendErr != nil {
		return fmt.Errorf("send prompt: %w", sendErr)
	}
	return nil
}

func (t *turn) retire(ctx context.Context) {
	old := t.conv.LastPromptID
	if old == 0 {
		return
	}
	if err := t.e.messenger.DeleteMessage(ctx, t.chatID, old); err != nil {
		logger.Warn(ctx, "engine", "prompt.retire",
			slog.String("status", "fail"),
			slog.Int64("chat_id", t.chatID),
			slog.Int("message_id", old),
			slog.String("err", err.Error()),
		)
	}
}

func (t *turn) save(ctx context.Context, patches ...conversation.Patch) error {
	conv, err := t.e.store.Upsert(ctx, t.chatID, patches...)
	if err != nil {
		return fmt.Errorf("store conversation %d: %w", t.chatID, err)
	}
	t.conv = conv
	return nil
}

// user is the authenticated user, or the zero user before login.
func (t *turn) user() media.User {
	if t.conv.User == nil {
		return media.User{}
	}
	return *t.conv.User
}
