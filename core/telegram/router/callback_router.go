package router

import (
	"log/slog"

	tg "github.com/m3rciful/gptbot/core/telegram"
	"github.com/m3rciful/gptbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/gptbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns the generic callback route. The query is answered
// first, then the data is resolved through the registry by exact key or prefix.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		tghelpers.Respond(c)

		data := callbacks.CallbackData(c)
		key, cbHandler, ok := reg.ResolveCallback(data)
		if !ok {
			key, _ = callbacks.ParseCallbackData(c.Callback())
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			return handleWithSummary(c, "callback."+normalizeHandlerName(key), func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, slog.String("cb_key", key), slog.String("reason", "not_found"))
		}
		return handleWithSummary(c, "callback."+normalizeHandlerName(key), func() error {
			return cbHandler(c)
		}, slog.String("cb_key", key))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
