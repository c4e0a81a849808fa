package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits a callback into its key and payload. Telebot fills Unique
// for buttons it built; raw data uses the "\f<key>|<payload>" encoding and
// data without the marker is a bare key.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	key, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(key), payload
}

// Key returns the key of the callback carried by c.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}
