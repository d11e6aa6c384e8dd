package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits callback data into a routing key and payload.
// Telebot-encoded data ("\f<unique>|<payload>") yields unique and payload.
// Raw data is returned whole as the key so prefix routing can inspect it.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw, encoded := strings.CutPrefix(cb.Data, "\f")
	if !encoded {
		return strings.TrimSpace(raw), ""
	}
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackData returns the raw callback data without the telebot unique prefix.
func CallbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique == "" {
		return strings.TrimPrefix(cb.Data, "\f")
	}
	return cb.Data
}
