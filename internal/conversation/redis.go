package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/mediabot/core/logger"
)

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL expires idle conversations; zero keeps them until overwritten.
	TTL time.Duration
}

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and returns a Store persisting conversations as JSON.
// Per-chat serialisation is still the caller's job (see KeyedMutex).
func NewRedisStore(ctx context.Context, opts RedisOptions) (Store, func() error, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	start := time.Now()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error(ctx, "store.conversation", "redis.connect",
			slog.String("status", "fail"),
			slog.String("host", opts.Addr),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("conversation: redis ping: %w", err)
	}
	logger.Info(ctx, "store.conversation", "redis.connect",
		slog.String("status", "ok"),
		slog.String("host", opts.Addr),
		slog.Duration("duration", logger.Took(start)),
	)

	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "mediabot"
	}
	return &redisStore{client: rdb, prefix: prefix, ttl: opts.TTL}, rdb.Close, nil
}

func (s *redisStore) key(chatID int64) string {
	return s.prefix + ":conversation:" + strconv.FormatInt(chatID, 10)
}

// Get loads the conversation document for chatID.
func (s *redisStore) Get(ctx context.Context, chatID int64) (Conversation, bool, error) {
	data, err := s.client.Get(ctx, s.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, fmt.Errorf("conversation: redis get %d: %w", chatID, err)
	}
	conv, err := decode(data)
	if err != nil {
		return Conversation{}, false, err
	}
	return conv, true, nil
}

// Upsert reads, merges and writes back the document. Callers hold the chat lock.
func (s *redisStore) Upsert(ctx context.Context, chatID int64, patches ...Patch) (Conversation, error) {
	prev, _, err := s.Get(ctx, chatID)
	if err != nil {
		return Conversation{}, err
	}
	next := Apply(prev, patches...)
	data, err := encode(next)
	if err != nil {
		return Conversation{}, err
	}
	if err := s.client.Set(ctx, s.key(chatID), data, s.ttl).Err(); err != nil {
		return Conversation{}, fmt.Errorf("conversation: redis set %d: %w", chatID, err)
	}
	logger.Debug(ctx, "store.conversation", "upsert",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("step", next.Step.String()),
	)
	return next, nil
}

func encode(c Conversation) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("conversation: encode: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Conversation, error) {
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return Conversation{}, fmt.Errorf("conversation: decode: %w", err)
	}
	c.normalize()
	return c, nil
}
