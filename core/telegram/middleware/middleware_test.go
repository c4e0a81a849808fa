package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Text:   "hi",
	}}
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "callback", UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, "media", UpdateKind(tele.Update{Message: &tele.Message{Audio: &tele.Audio{}}}))
	assert.Equal(t, "media", UpdateKind(tele.Update{Message: &tele.Message{Photo: &tele.Photo{}}}))
	assert.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{Text: "x"}}))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestRateLimitDropsBurstsButNotExcludedKinds(t *testing.T) {
	b := offlineBot(t)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"media": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 7))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 7))))
	require.NoError(t, h(b.NewContext(textUpdate(3, 8))))

	media := textUpdate(4, 7)
	media.Message.Audio = &tele.Audio{File: tele.File{FileID: "a"}}
	require.NoError(t, h(b.NewContext(media)))

	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)
}

func TestRecoverMiddlewareSwallowsPanics(t *testing.T) {
	b := offlineBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(b.NewContext(textUpdate(1, 7))))
	})
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	b := offlineBot(t)
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(b.NewContext(textUpdate(5, 9))))
	assert.Equal(t, "5:9:9", rid)
}

func TestSeenUpdatesExpire(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, seen: make(map[int]time.Time)}
	now := time.Now()
	assert.True(t, s.first(1, now))
	assert.False(t, s.first(1, now.Add(500*time.Millisecond)))
	assert.True(t, s.first(2, now))
	assert.True(t, s.first(1, now.Add(2*time.Second)))
}

func TestAttachmentKind(t *testing.T) {
	kind, size := attachment(&tele.Message{Audio: &tele.Audio{File: tele.File{FileSize: 2048}}})
	assert.Equal(t, "audio", kind)
	assert.EqualValues(t, 2048, size)
	kind, _ = attachment(&tele.Message{Text: "hi"})
	assert.Empty(t, kind)
}
