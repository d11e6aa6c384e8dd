// Package transport adapts the dialog router to telebot: it implements
// reply.Responder on top of a tele.Context and registers the handlers.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/gptbot/bot/assets"
	"github.com/m3rciful/gptbot/bot/reply"
	"github.com/m3rciful/gptbot/core/logger"
	tghelpers "github.com/m3rciful/gptbot/core/telegram/helpers"
	"github.com/m3rciful/gptbot/core/telegram/keyboard"
	"github.com/m3rciful/gptbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// ImageSource loads pictures by key.
type ImageSource interface {
	Image(key string) (assets.Image, error)
}

// PhotoCache remembers the Telegram file id of every uploaded image so each
// picture is uploaded once per process.
type PhotoCache struct {
	source ImageSource
	mu     sync.RWMutex
	ids    map[string]string
}

// NewPhotoCache wraps source.
func NewPhotoCache(source ImageSource) *PhotoCache {
	return &PhotoCache{source: source, ids: make(map[string]string)}
}

// photo returns the photo to send for key: a file id when known, the file
// contents otherwise.
func (p *PhotoCache) photo(key string) (*tele.Photo, error) {
	p.mu.RLock()
	id, ok := p.ids[key]
	p.mu.RUnlock()
	if ok {
		return &tele.Photo{File: tele.File{FileID: id}}, nil
	}
	img, err := p.source.Image(key)
	if err != nil {
		return nil, err
	}
	return &tele.Photo{File: tele.FromReader(bytes.NewReader(img.Data))}, nil
}

func (p *PhotoCache) remember(key string, msg *tele.Message) {
	if msg == nil || msg.Photo == nil || msg.Photo.FileID == "" {
		return
	}
	p.mu.Lock()
	p.ids[key] = msg.Photo.FileID
	p.mu.Unlock()
}

// Responder implements reply.Responder for the chat of one update.
type Responder struct {
	c      tele.Context
	photos *PhotoCache
}

var _ reply.Responder = (*Responder)(nil)

// NewResponder binds a responder to c.
func NewResponder(c tele.Context, photos *PhotoCache) *Responder {
	return &Responder{c: c, photos: photos}
}

// SendImage sends the picture stored under key. A missing picture is
// logged and skipped so the text that follows still arrives.
func (r *Responder) SendImage(ctx context.Context, key string) error {
	if r.photos == nil {
		return nil
	}
	photo, err := r.photos.photo(key)
	if errors.Is(err, assets.ErrNotFound) {
		logger.Warn(ctx, "tg", "image.missing", slog.String("key", key))
		return nil
	}
	if err != nil {
		return err
	}
	return tghelpers.Call(r.c, "send.photo", "sendPhoto", func() error {
		msg, err := r.c.Bot().Send(r.c.Recipient(), photo)
		if err != nil {
			return err
		}
		middleware.RecordSend(r.c, false)
		r.photos.remember(key, msg)
		return nil
	})
}

// SendText sends plain text.
func (r *Responder) SendText(_ context.Context, text string) error {
	return tghelpers.SendText(r.c, text)
}

// SendButtons sends text with an inline keyboard.
func (r *Responder) SendButtons(_ context.Context, text string, rows [][]reply.Button) error {
	return tghelpers.SendText(r.c, text, Markup(rows))
}

// SendPlaceholder sends text and returns its id for a later Delete.
func (r *Responder) SendPlaceholder(_ context.Context, text string) (reply.Message, error) {
	var out reply.Message
	err := tghelpers.Call(r.c, "send.placeholder", "sendMessage", func() error {
		msg, err := r.c.Bot().Send(r.c.Recipient(), text)
		if err != nil {
			return err
		}
		middleware.RecordSend(r.c, false)
		out = reply.Message{ID: msg.ID}
		if msg.Chat != nil {
			out.ChatID = msg.Chat.ID
		}
		return nil
	})
	return out, err
}

// Delete removes a message sent earlier.
func (r *Responder) Delete(_ context.Context, msg reply.Message) error {
	chatID := msg.ChatID
	if chatID == 0 && r.c.Chat() != nil {
		chatID = r.c.Chat().ID
	}
	if chatID == 0 || msg.ID == 0 {
		return fmt.Errorf("transport: delete: incomplete message reference %+v", msg)
	}
	return tghelpers.Call(r.c, "delete", "deleteMessage", func() error {
		return r.c.Bot().Delete(tele.StoredMessage{MessageID: strconv.Itoa(msg.ID), ChatID: chatID})
	})
}

// ShowMenu sets the command menu for the current chat.
func (r *Responder) ShowMenu(_ context.Context, entries []reply.MenuEntry) error {
	chat := r.c.Chat()
	if chat == nil {
		return errors.New("transport: show menu: no chat")
	}
	cmds := make([]tele.Command, len(entries))
	for i, e := range entries {
		cmds[i] = tele.Command{Text: e.Command, Description: e.Description}
	}
	scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: chat.ID}
	return tghelpers.Call(r.c, "set.commands", "setMyCommands", func() error {
		return r.c.Bot().SetCommands(cmds, scope)
	})
}

// Markup converts button rows into an inline keyboard whose callback data
// is the raw button data.
func Markup(rows [][]reply.Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.InlineBtn, len(rows))
	for i, row := range rows {
		kb[i] = make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			kb[i][j] = keyboard.Raw(b.Text, b.Data)
		}
	}
	return keyboard.InlineButtonsRows(kb...)
}
