package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/m3rciful/gptbot/bot/assets"
	"github.com/m3rciful/gptbot/bot/assistant"
	"github.com/m3rciful/gptbot/bot/dialog"
	"github.com/m3rciful/gptbot/bot/quiz"
	"github.com/m3rciful/gptbot/bot/reply"
	"github.com/m3rciful/gptbot/bot/session"
	tg "github.com/m3rciful/gptbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type apiCall struct {
	method    string
	multipart bool
}

type stubAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (s *stubAPI) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.method
	}
	return out
}

// newStubBot returns an offline bot whose Bot API calls hit a local stub.
func newStubBot(t *testing.T) (*tele.Bot, *stubAPI) {
	t.Helper()
	api := &stubAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := path.Base(r.URL.Path)
		api.mu.Lock()
		api.calls = append(api.calls, apiCall{
			method:    method,
			multipart: strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/"),
		})
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "sendMessage", "sendPhoto":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":1,"chat":{"id":3,"type":"private"},"photo":[{"file_id":"photo-1","file_unique_id":"u1","width":1,"height":1}]}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		}
	}))
	t.Cleanup(srv.Close)

	b, err := tele.NewBot(tele.Settings{Token: "1:test", URL: srv.URL, Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b, api
}

func messageCtx(b *tele.Bot, text string) tele.Context {
	return b.NewContext(tele.Update{
		ID: 21,
		Message: &tele.Message{
			ID:     9,
			Text:   text,
			Sender: &tele.User{ID: 3},
			Chat:   &tele.Chat{ID: 3},
		},
	})
}

var testFS = fstest.MapFS{
	"prompts/random.txt": {Data: []byte("random prompt")},
	"prompts/gpt.txt":    {Data: []byte("gpt prompt")},
	"messages/start.txt": {Data: []byte("welcome")},
	"messages/gpt.txt":   {Data: []byte("ask away")},
	"messages/talk.txt":  {Data: []byte("pick one")},
	"images/start.png":   {Data: []byte{0x89, 'P', 'N', 'G'}},
}

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ string, turns []assistant.Turn) (string, error) {
	return "echo " + turns[len(turns)-1].Text, nil
}

func newHandlers(t *testing.T) *Handlers {
	t.Helper()
	catalog := assets.New(testFS)
	engine, err := quiz.NewEngine([]quiz.Item{{Question: "q", Options: []string{"a", "b"}, Correct: "a"}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	router, err := dialog.New(dialog.Options{
		Sessions: session.NewStore(echoCompleter{}),
		Texts:    catalog,
		Quiz:     engine,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return NewHandlers(router, NewPhotoCache(catalog))
}

func TestRegisterWiresCommandsAndCallbacks(t *testing.T) {
	reg := tg.NewRegistry()
	if err := newHandlers(t).Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	menu := reg.ListCommands(true)
	var names []string
	for _, c := range menu {
		names = append(names, c.Text)
	}
	if got := strings.Join(names, ","); got != "start,random,gpt,talk,quiz" {
		t.Fatalf("commands = %s", got)
	}
	for data, wantKey := range map[string]string{
		"start":             "start",
		"random":            "random",
		"quiz_next":         "quiz_next",
		"talk_linus":        "talk_",
		"quiz_answer:Paris": "quiz_answer:",
	} {
		key, _, ok := reg.ResolveCallback(data)
		if !ok || key != wantKey {
			t.Errorf("ResolveCallback(%q) = %q, %v", data, key, ok)
		}
	}
	if key, _, ok := reg.LookupCommand("/menu"); !ok || key != "/start" {
		t.Errorf("/menu resolves to %q, %v", key, ok)
	}
	if reg.TextFallback() == nil {
		t.Fatal("text fallback not set")
	}
}

func TestStartCommandOverTelegram(t *testing.T) {
	b, api := newStubBot(t)
	h := newHandlers(t)

	if err := h.Command(dialog.CommandStart)(messageCtx(b, "/start")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := strings.Join(api.methods(), ","); got != "sendPhoto,sendMessage,setMyCommands" {
		t.Fatalf("api calls = %s", got)
	}
}

func TestUnknownCommandAnswersWithHint(t *testing.T) {
	b, api := newStubBot(t)
	h := newHandlers(t)

	if err := h.UnknownCommand(messageCtx(b, "/qiuz")); err != nil {
		t.Fatalf("unknown command: %v", err)
	}
	if got := strings.Join(api.methods(), ","); got != "sendMessage" {
		t.Fatalf("api calls = %s", got)
	}
}

func TestPhotoUploadedOnce(t *testing.T) {
	b, api := newStubBot(t)
	r := NewResponder(messageCtx(b, ""), NewPhotoCache(assets.New(testFS)))

	for i := 0; i < 2; i++ {
		if err := r.SendImage(context.Background(), "start"); err != nil {
			t.Fatalf("send image %d: %v", i, err)
		}
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.calls) != 2 || !api.calls[0].multipart || api.calls[1].multipart {
		t.Fatalf("calls = %+v, want one upload then a file id", api.calls)
	}
}

func TestMissingImageIsSkipped(t *testing.T) {
	b, api := newStubBot(t)
	r := NewResponder(messageCtx(b, ""), NewPhotoCache(assets.New(testFS)))
	if err := r.SendImage(context.Background(), "nope"); err != nil {
		t.Fatalf("missing image should not fail: %v", err)
	}
	if len(api.methods()) != 0 {
		t.Fatalf("unexpected calls %v", api.methods())
	}
}

func TestPlaceholderRoundTrip(t *testing.T) {
	b, api := newStubBot(t)
	r := NewResponder(messageCtx(b, ""), nil)

	msg, err := r.SendPlaceholder(context.Background(), "thinking...")
	if err != nil {
		t.Fatalf("placeholder: %v", err)
	}
	if msg.ID != 77 || msg.ChatID != 3 {
		t.Fatalf("message = %+v", msg)
	}
	if err := r.Delete(context.Background(), msg); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := strings.Join(api.methods(), ","); got != "sendMessage,deleteMessage" {
		t.Fatalf("api calls = %s", got)
	}
	if err := r.Delete(context.Background(), reply.Message{}); err == nil {
		t.Fatal("delete without id must fail")
	}
}

func TestMarkupKeepsRawData(t *testing.T) {
	kb := Markup(reply.Column(
		reply.Button{Text: "Want another fact", Data: "random"},
		reply.Button{Text: "Close", Data: "start"},
	))
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(kb.InlineKeyboard))
	}
	if got := kb.InlineKeyboard[0][0].Data; got != "random" {
		t.Fatalf("data = %q", got)
	}
}
