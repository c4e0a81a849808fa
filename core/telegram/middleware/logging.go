package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/mediabot/core/telegram/helpers"
)

// seenUpdates remembers update ids for a short while so an update wrapped by
// the logger on more than one branch is logged once.
type seenUpdates struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

var receipts = &seenUpdates{ttl: 10 * time.Second, seen: make(map[int]time.Time)}

// first reports whether id has not been seen within ttl.
func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, k)
		}
	}
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = now
	return true
}

// LoggerMiddleware assigns the update its request id and logs one sampled
// debug receipt per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set("update_start", time.Now())
		ctx := tghelpers.NewUpdateContext(c)

		upd := c.Update()
		if logger.ShouldSampleDebug() && receipts.first(upd.ID, time.Now()) {
			attrs := append([]slog.Attr{
				slog.String("status", "ok"),
				slog.String("rid", logger.RIDFrom(ctx)),
				slog.Int("update_id", upd.ID),
			}, senderAttrs(c)...)
			attrs = append(attrs, payloadAttrs(c, upd)...)
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}

func senderAttrs(c tele.Context) []slog.Attr {
	var attrs []slog.Attr
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs,
			slog.Int64("chat_id", chat.ID),
			slog.String("chat_type", string(chat.Type)),
		)
	}
	if u := c.Sender(); u != nil && u.ID != 0 {
		attrs = append(attrs, slog.Int64("user_id", u.ID))
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	return attrs
}

func payloadAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	var attrs []slog.Attr
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.Parse(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		if kind, size := attachment(upd.Message); kind != "" {
			attrs = append(attrs, slog.String("op", kind), slog.Int64("bytes", size))
		}
	}
	return attrs
}

// attachment reports the kind and declared size of the message's media.
func attachment(m *tele.Message) (string, int64) {
	switch {
	case m.Audio != nil:
		return "audio", int64(m.Audio.FileSize)
	case m.Video != nil:
		return "video", int64(m.Video.FileSize)
	case m.Photo != nil:
		return "photo", int64(m.Photo.FileSize)
	case m.Document != nil:
		return "document", int64(m.Document.FileSize)
	}
	return "", 0
}
