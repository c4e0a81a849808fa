// Package commands describes slash commands shown in the bot menu.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command handler. Hidden commands still work when typed
// but are left out of the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
}
