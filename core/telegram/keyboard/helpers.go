// Package keyboard lays out inline buttons.
package keyboard

import (
	"slices"

	tele "gopkg.in/telebot.v4"
)

// Button is an inline button whose press arrives as a callback with Key as
// its unique part.
type Button struct {
	Text string
	Key  string
}

// Inline lays buttons out left to right, perRow per row; perRow <= 0 puts
// every button on its own row. No buttons yields nil so callers send plain text.
func Inline(buttons []Button, perRow int) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	if perRow <= 0 {
		perRow = 1
	}
	markup := &tele.ReplyMarkup{}
	for chunk := range slices.Chunk(buttons, perRow) {
		row := make([]tele.InlineButton, 0, len(chunk))
		for _, b := range chunk {
			row = append(row, *markup.Data(b.Text, b.Key).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}
	return markup
}
