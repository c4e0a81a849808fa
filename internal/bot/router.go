// Package bot connects telebot updates to the conversation engine.
package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/commands"
	tghelpers "github.com/m3rciful/mediabot/core/telegram/helpers"
	"github.com/m3rciful/mediabot/core/telegram/router"
	"github.com/m3rciful/mediabot/internal/engine"
)

// CallbackAnswer is the toast shown for every button press.
const CallbackAnswer = "Done"

// Handler consumes engine events.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) error
}

// Router translates updates into engine events. It keeps no state.
type Router struct {
	handler     Handler
	enableVideo bool
}

// NewRouter returns a router feeding h.
func NewRouter(h Handler, enableVideo bool) *Router {
	return &Router{handler: h, enableVideo: enableVideo}
}

type binding struct {
	command     string
	description string
	callback    string
	kind        engine.Kind
	video       bool
}

var bindings = []binding{
	{command: "/start", description: "Start the bot", kind: engine.EventStart},
	{command: "/login", description: "Log in with your user id", callback: engine.KeyLogin, kind: engine.EventLogin},
	{command: "/audio", description: "Upload an audio file", callback: engine.KeyAudio, kind: engine.EventSelectAudio},
	{command: "/video", description: "Upload a video file", callback: engine.KeyVideo, kind: engine.EventSelectVideo, video: true},
	{command: "/confirm", description: "Save the pending record", callback: engine.KeyConfirm, kind: engine.EventConfirm},
	{command: "/cancel", description: "Cancel the current operation", callback: engine.KeyCancel, kind: engine.EventCancel},
}

// Register adds the bot's commands and callback keys to reg. Presses on
// keys that are not registered, such as a video button left over after
// the feature was disabled, are acknowledged and dropped.
func (r *Router) Register(reg *tg.Registry) error {
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: CallbackAnswer})
	})
	for _, b := range bindings {
		if b.video && !r.enableVideo {
			continue
		}
		reg.RegisterCommand(b.command, commands.Command{
			Handler:     r.on(b.kind),
			Description: b.description,
		})
		if b.callback == "" {
			continue
		}
		if err := reg.RegisterCallback(b.callback, r.on(b.kind)); err != nil {
			return err
		}
	}
	return nil
}

// Routes returns the command, callback and message routes for reg.
func (r *Router) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{Answer: CallbackAnswer}))
	opts := router.MessageOptions{
		Text:  r.on(engine.EventText),
		Audio: r.on(engine.EventAudio),
		Photo: r.on(engine.EventPhoto),
	}
	if r.enableVideo {
		opts.Video = r.on(engine.EventVideo)
	}
	return append(routes, router.MessageRoutes(reg, opts)...)
}

func (r *Router) on(kind engine.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev, ok := eventFrom(kind, c.Chat(), c.Message())
		if !ok {
			return nil
		}
		return r.handler.Handle(tghelpers.BuildContext(c), ev)
	}
}
