package helpers

import (
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/gptbot/core/logger"
	"github.com/m3rciful/gptbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the sender used by helper functions. Nil restores direct sends.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Dispatcher returns the sender wired by SetDispatcher, if any.
func Dispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// chatKey returns the shard key of the current update.
func chatKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// Call runs a Bot API call for the current chat through the dispatcher and
// waits for it, keeping it ordered with other sends to that chat.
func Call(c tele.Context, action, endpoint string, run func() error) error {
	disp := Dispatcher()
	if disp == nil {
		return run()
	}
	return disp.Do(BuildContext(c), chatKey(c), action, endpoint, run)
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...any) error {
	return Call(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts...)
	})
}

// Respond answers the pending callback query, if any, outside the chat queue.
func Respond(c tele.Context, resp ...*tele.CallbackResponse) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(resp...); err != nil {
		logger.Debug(BuildContext(c), "tg", "callback.respond", slog.Any("err", err))
	}
}
