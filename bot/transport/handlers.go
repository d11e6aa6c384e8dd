package transport

import (
	"fmt"

	"github.com/m3rciful/gptbot/bot/callback"
	"github.com/m3rciful/gptbot/bot/dialog"
	tg "github.com/m3rciful/gptbot/core/telegram"
	tgcallbacks "github.com/m3rciful/gptbot/core/telegram/callbacks"
	"github.com/m3rciful/gptbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/gptbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Handlers turns telebot updates into dialog router calls.
type Handlers struct {
	router *dialog.Router
	photos *PhotoCache
}

// NewHandlers binds router and photos.
func NewHandlers(router *dialog.Router, photos *PhotoCache) *Handlers {
	return &Handlers{router: router, photos: photos}
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// Command returns the handler of a dialog command.
func (h *Handlers) Command(cmd dialog.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		return h.router.HandleCommand(ctx, NewResponder(c, h.photos), senderID(c), cmd)
	}
}

// Callback handles every button of the payload contract.
func (h *Handlers) Callback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.router.HandleCallback(ctx, NewResponder(c, h.photos), senderID(c), tgcallbacks.CallbackData(c))
}

// Text handles free text.
func (h *Handlers) Text(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.router.HandleText(ctx, NewResponder(c, h.photos), senderID(c), c.Text())
}

// UnknownCommand handles slash text that names no registered command.
func (h *Handlers) UnknownCommand(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.router.HandleUnknownCommand(ctx, NewResponder(c, h.photos), senderID(c), c.Text())
}

// Register adds the bot commands, the callback keys and the text fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	for i, entry := range dialog.MainMenu() {
		cmd := commands.Command{
			Handler:     h.Command(dialog.Command(entry.Command)),
			Description: entry.Description,
			Order:       i + 1,
		}
		if dialog.Command(entry.Command) == dialog.CommandStart {
			cmd.Aliases = []string{"menu"}
		}
		reg.RegisterCommand("/"+entry.Command, cmd)
	}

	exact := []string{callback.Start, callback.Random, callback.QuizNext}
	for _, key := range exact {
		if err := reg.RegisterCallback(key, h.Callback); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
	}
	prefixes := []string{callback.TalkPrefix, callback.QuizAnswerPrefix}
	for _, prefix := range prefixes {
		if err := reg.RegisterCallbackPrefix(prefix, h.Callback); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
	}
	reg.SetTextFallback(h.Text)
	return nil
}
