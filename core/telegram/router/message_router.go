package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/middleware"
)

// MessageOptions binds non-command updates to handlers. Nil handlers are
// logged as skipped.
type MessageOptions struct {
	Text     tele.HandlerFunc
	Audio    tele.HandlerFunc
	Photo    tele.HandlerFunc
	Video    tele.HandlerFunc
	Document tele.HandlerFunc
}

// MessageRoutes builds handlers for text and attachment updates. Slash text
// that matches a registered command alias is dispatched to that command first.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if t := c.Text(); reg != nil && strings.HasPrefix(t, "/") {
			if key, cmd, ok := reg.LookupCommand(t); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}
		if opts.Text != nil {
			return handleWithSummary(c, "text", start, "", "", func() error {
				return opts.Text(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnAudio, Handler: wrap(attachment("audio", opts.Audio))},
		{Endpoint: tele.OnPhoto, Handler: wrap(attachment("photo", opts.Photo))},
		{Endpoint: tele.OnVideo, Handler: wrap(attachment("video", opts.Video))},
		{Endpoint: tele.OnDocument, Handler: wrap(attachment("document", opts.Document))},
	}
}

func attachment(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		if h == nil {
			logHandlerSummary(c, "unexpected_"+name, start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		})
	}
}

func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}
