package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/mediabot/core/logger"
)

type memoryStore struct {
	mu            sync.RWMutex
	conversations map[int64]Conversation
}

// NewMemoryStore constructs the in-process Store used by default and in tests.
func NewMemoryStore() Store {
	return &memoryStore{
		conversations: make(map[int64]Conversation),
	}
}

// Get returns a copy of the stored conversation.
func (m *memoryStore) Get(_ context.Context, chatID int64) (Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[chatID]
	if !ok {
		return Conversation{}, false, nil
	}
	return conv.Clone(), true, nil
}

// Upsert merges the patches and stores the result, creating the entry if needed.
func (m *memoryStore) Upsert(ctx context.Context, chatID int64, patches ...Patch) (Conversation, error) {
	m.mu.Lock()
	prev, existed := m.conversations[chatID]
	next := Apply(prev, patches...)
	m.conversations[chatID] = next
	m.mu.Unlock()

	logger.Debug(ctx, "store.conversation", "upsert",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("step", next.Step.String()),
		slog.Bool("created", !existed),
	)
	return next.Clone(), nil
}
