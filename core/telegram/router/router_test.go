package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/commands"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "upload error" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "UPLOAD_ERROR", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "HTTP_5XX", deriveErrorCode(&tele.Error{Code: 502, Description: "bad gateway"}))
	assert.Equal(t, "PLAINERR", deriveErrorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "audio", normalizeHandlerName(" /Audio "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
	assert.Equal(t, "select_audio", normalizeHandlerName("select audio"))
}

func TestMessageRoutesDispatch(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	var got []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/audio", commands.Command{
		Description: "Upload",
		Handler:     func(tele.Context) error { got = append(got, "cmd"); return nil },
	})
	routes := MessageRoutes(reg, MessageOptions{
		Text: func(c tele.Context) error { got = append(got, "text:"+c.Text()); return nil },
	})
	require.Len(t, routes, 5)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)

	send := func(r tg.Route, msg *tele.Message) {
		msg.Chat = &tele.Chat{ID: 1}
		msg.Sender = &tele.User{ID: 1}
		require.NoError(t, r.Handler(b.NewContext(tele.Update{ID: 1, Message: msg})))
	}
	send(routes[0], &tele.Message{Text: "/audio@media_bot"})
	send(routes[0], &tele.Message{Text: "hello"})
	send(routes[0], &tele.Message{Text: "/unknown"})
	send(routes[1], &tele.Message{Audio: &tele.Audio{File: tele.File{FileID: "a"}}})

	assert.Equal(t, []string{"cmd", "text:hello", "text:/unknown"}, got)
}
