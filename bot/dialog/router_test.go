package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/m3rciful/gptbot/bot/assets"
	"github.com/m3rciful/gptbot/bot/assistant"
	"github.com/m3rciful/gptbot/bot/quiz"
	"github.com/m3rciful/gptbot/bot/reply/replytest"
	"github.com/m3rciful/gptbot/bot/session"
)

const user = int64(42)

type fakeCompleter struct {
	calls   int
	systems []string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, system string, turns []assistant.Turn) (string, error) {
	f.calls++
	f.systems = append(f.systems, system)
	if f.err != nil {
		return "", f.err
	}
	return "answer to " + turns[len(turns)-1].Text, nil
}

var testTexts = fstest.MapFS{
	"prompts/random.txt":     {Data: []byte("random prompt")},
	"prompts/gpt.txt":        {Data: []byte("gpt prompt")},
	"prompts/talk_linus.txt": {Data: []byte("be linus")},
	"prompts/talk_guido.txt": {Data: []byte("be guido")},
	"messages/start.txt":     {Data: []byte("welcome")},
	"messages/gpt.txt":       {Data: []byte("ask away")},
	"messages/talk.txt":      {Data: []byte("pick one")},
}

var testPersonas = []assets.Persona{
	{ID: "linus", Name: "Linus", Button: "Linus (Linux)", Prompt: "talk_linus", Image: "talk_linus"},
	{ID: "guido", Name: "Guido", Button: "Guido (Python)", Prompt: "talk_guido"},
}

type harness struct {
	router    *Router
	sessions  *session.Store
	completer *fakeCompleter
	rec       *replytest.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	engine, err := quiz.NewEngine([]quiz.Item{
		{Question: "First?", Options: []string{"A", "B"}, Correct: "A"},
		{Question: "Second?", Options: []string{"A", "B"}, Correct: "B"},
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	completer := &fakeCompleter{}
	sessions := session.NewStore(completer)
	router, err := New(Options{
		Sessions: sessions,
		Texts:    assets.New(testTexts),
		Personas: testPersonas,
		Quiz:     engine,
		Intn:     func(int) int { return 3 },
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &harness{router: router, sessions: sessions, completer: completer, rec: &replytest.Recorder{}}
}

func (h *harness) command(t *testing.T, cmd Command) {
	t.Helper()
	if err := h.router.HandleCommand(context.Background(), h.rec, user, cmd); err != nil {
		t.Fatalf("command %s: %v", cmd, err)
	}
}

func (h *harness) press(t *testing.T, data string) {
	t.Helper()
	if err := h.router.HandleCallback(context.Background(), h.rec, user, data); err != nil {
		t.Fatalf("callback %s: %v", data, err)
	}
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	if err := h.router.HandleText(context.Background(), h.rec, user, text); err != nil {
		t.Fatalf("text %q: %v", text, err)
	}
}

func (h *harness) session() *session.Session {
	return h.sessions.Get(user)
}

func kindsString(kinds []replytest.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func TestNewFailsOnMissingResources(t *testing.T) {
	engine, err := quiz.NewEngine([]quiz.Item{{Question: "q", Options: []string{"a", "b"}, Correct: "a"}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	sessions := session.NewStore(nil)

	_, err = New(Options{Sessions: sessions, Texts: assets.New(fstest.MapFS{}), Quiz: engine})
	if !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_, err = New(Options{
		Sessions: sessions,
		Texts:    assets.New(testTexts),
		Quiz:     engine,
		Personas: []assets.Persona{{ID: "x", Name: "X", Prompt: "missing"}},
	})
	if !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("persona prompt err = %v, want ErrNotFound", err)
	}
}

func TestStartShowsMainMenu(t *testing.T) {
	h := newHarness(t)
	h.session().SetMode(session.ModeAskingGPT)

	h.command(t, CommandStart)

	if h.session().Mode() != session.ModeNone {
		t.Fatalf("mode = %s", h.session().Mode())
	}
	if got := kindsString(h.rec.Kinds()); got != "image,text,menu" {
		t.Fatalf("events = %s", got)
	}
	menu, _ := h.rec.Last(replytest.KindMenu)
	if len(menu.Menu) != 5 || menu.Menu[0].Command != "start" || menu.Menu[4].Command != "quiz" {
		t.Fatalf("menu = %+v", menu.Menu)
	}
}

func TestRandomFact(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandRandom)

	if got := kindsString(h.rec.Kinds()); got != "image,placeholder,buttons,delete" {
		t.Fatalf("events = %s", got)
	}
	fact, _ := h.rec.Last(replytest.KindButtons)
	if fact.Text != "answer to Tell me a random fact" {
		t.Fatalf("fact = %q", fact.Text)
	}
	if got := strings.Join(replytest.ButtonData(fact.Rows), ","); got != "random,start" {
		t.Fatalf("buttons = %s", got)
	}
	if fact.Rows[0][0].Text != "Want another fact" || fact.Rows[1][0].Text != "Close" {
		t.Fatalf("labels = %+v", fact.Rows)
	}
	if h.completer.systems[0] != "random prompt" {
		t.Fatalf("system = %q", h.completer.systems[0])
	}
	if len(h.session().Chat.Transcript()) != 0 {
		t.Fatal("random fact must not touch the transcript")
	}
}

func TestRandomFactFailureStillDeletesPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.completer.err = errors.New("timeout")

	h.command(t, CommandRandom)

	if got := kindsString(h.rec.Kinds()); got != "image,placeholder,text,delete" {
		t.Fatalf("events = %s", got)
	}
	if ev, _ := h.rec.Last(replytest.KindText); ev.Text != randomFailedText {
		t.Fatalf("apology = %q", ev.Text)
	}
	placeholder, _ := h.rec.Last(replytest.KindPlaceholder)
	deleted, _ := h.rec.Last(replytest.KindDelete)
	if deleted.Message != placeholder.Message {
		t.Fatalf("deleted %+v, placeholder %+v", deleted.Message, placeholder.Message)
	}
}

func TestPlaceholderDeletedWhenReplyFails(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandGPT)
	h.rec.Reset()
	h.rec.Err = errors.New("telegram down")
	h.rec.Fails = map[replytest.Kind]bool{replytest.KindButtons: true}

	err := h.router.HandleText(context.Background(), h.rec, user, "hi")
	if err == nil {
		t.Fatal("send failure must propagate")
	}
	if got := kindsString(h.rec.Kinds()); got != "placeholder,delete" {
		t.Fatalf("events = %s", got)
	}
}

func TestAskGPT(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandGPT)
	if h.session().Mode() != session.ModeAskingGPT || h.session().Chat.Prompt() != "gpt prompt" {
		t.Fatalf("session = %s / %q", h.session().Mode(), h.session().Chat.Prompt())
	}
	h.rec.Reset()

	h.text(t, "What is Go?")

	if got := kindsString(h.rec.Kinds()); got != "placeholder,buttons,delete" {
		t.Fatalf("events = %s", got)
	}
	ans, _ := h.rec.Last(replytest.KindButtons)
	if ans.Text != "answer to What is Go?" || replytest.ButtonData(ans.Rows)[0] != "start" {
		t.Fatalf("answer = %+v", ans)
	}
	if h.session().Mode() != session.ModeAskingGPT {
		t.Fatal("mode must stay asking_gpt")
	}
}

func TestMistypedCommandNeverReachesAssistant(t *testing.T) {
	enter := map[string]func(h *harness){
		"none": func(*harness) {},
		"gpt":  func(h *harness) { h.command(t, CommandGPT) },
		"persona": func(h *harness) {
			h.command(t, CommandTalk)
			h.press(t, "talk_linus")
		},
	}
	for name, setup := range enter {
		h := newHarness(t)
		setup(h)
		mode, transcript := h.session().Mode(), len(h.session().Chat.Transcript())
		h.rec.Reset()

		h.text(t, "/qiuz now")

		if h.completer.calls != 0 {
			t.Errorf("%s: assistant called %d times", name, h.completer.calls)
		}
		if got := kindsString(h.rec.Kinds()); got != "text" {
			t.Errorf("%s: events = %s, want text", name, got)
		}
		msg, _ := h.rec.Last(replytest.KindText)
		if !strings.HasPrefix(msg.Text, "Unknown command /qiuz.") || !strings.HasSuffix(msg.Text, commandHint) {
			t.Errorf("%s: reply = %q", name, msg.Text)
		}
		if h.session().Mode() != mode || len(h.session().Chat.Transcript()) != transcript {
			t.Errorf("%s: session changed to %s", name, h.session().Mode())
		}
	}
}

func TestAskGPTFailureKeepsMode(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandGPT)
	h.completer.err = errors.New("boom")
	h.rec.Reset()

	h.text(t, "hello")

	if ev, _ := h.rec.Last(replytest.KindText); ev.Text != gptFailedText {
		t.Fatalf("apology = %q", ev.Text)
	}
	if h.session().Mode() != session.ModeAskingGPT {
		t.Fatal("mode must survive a failed completion")
	}
	if len(h.session().Chat.Transcript()) != 0 {
		t.Fatal("failed turn must not stay in the transcript")
	}
}

func TestTalkPickerAndPersona(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandTalk)

	if h.session().Mode() != session.ModeNone {
		t.Fatal("talk must not change mode before a persona is picked")
	}
	picker, _ := h.rec.Last(replytest.KindButtons)
	if got := strings.Join(replytest.ButtonData(picker.Rows), ","); got != "talk_linus,talk_guido,start" {
		t.Fatalf("picker = %s", got)
	}

	h.rec.Reset()
	h.press(t, "talk_linus")
	s := h.session()
	if s.Mode() != session.ModeTalkingPersona || s.Persona != "linus" || s.Chat.Prompt() != "be linus" {
		t.Fatalf("session = %s %q %q", s.Mode(), s.Persona, s.Chat.Prompt())
	}
	if img, _ := h.rec.Last(replytest.KindImage); img.Text != "talk_linus" {
		t.Fatalf("persona image = %q", img.Text)
	}

	h.rec.Reset()
	h.text(t, "hi")
	ans, _ := h.rec.Last(replytest.KindButtons)
	if ans.Text != "Linus: answer to hi" {
		t.Fatalf("reply = %q", ans.Text)
	}
	if ph, _ := h.rec.Last(replytest.KindPlaceholder); ph.Text != "Linus is typing..." {
		t.Fatalf("placeholder = %q", ph.Text)
	}
}

func TestSwitchingPersonaClearsTranscript(t *testing.T) {
	h := newHarness(t)
	h.press(t, "talk_linus")
	h.text(t, "one")
	h.press(t, "talk_guido")
	h.text(t, "two")
	h.text(t, "three")

	tr := h.session().Chat.Transcript()
	if len(tr) != 4 || tr[0].Text != "two" {
		t.Fatalf("transcript = %+v", tr)
	}
}

func TestPersonaModeWithoutPersonaNeverCallsAssistant(t *testing.T) {
	h := newHarness(t)
	s := h.session()
	s.SetMode(session.ModeTalkingPersona)

	h.text(t, "hello?")

	if h.completer.calls != 0 {
		t.Fatalf("assistant called %d times", h.completer.calls)
	}
	ev, _ := h.rec.Last(replytest.KindButtons)
	if ev.Text != choosePersonaText {
		t.Fatalf("reply = %q", ev.Text)
	}
	s.Persona = "ghost"
	h.text(t, "hello again")
	if h.completer.calls != 0 {
		t.Fatal("unknown persona must not reach the assistant")
	}
}

func TestUnknownPersonaButtonRePrompts(t *testing.T) {
	h := newHarness(t)
	h.press(t, "talk_elvis")
	if h.session().Mode() != session.ModeNone {
		t.Fatal("unknown persona must not enter persona mode")
	}
	if ev, _ := h.rec.Last(replytest.KindButtons); ev.Text != unknownPersonaText {
		t.Fatalf("reply = %q", ev.Text)
	}
}

func TestQuizScenario(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandQuiz)
	s := h.session()
	if s.Mode() != session.ModeTakingQuiz || s.QuizIndex != 0 {
		t.Fatalf("session = %s %d", s.Mode(), s.QuizIndex)
	}
	q, _ := h.rec.Last(replytest.KindButtons)
	if got := strings.Join(replytest.ButtonData(q.Rows), ","); got != "quiz_answer:A,quiz_answer:B,quiz_next,start" {
		t.Fatalf("question buttons = %s", got)
	}

	h.press(t, "quiz_answer:B")
	if ev, _ := h.rec.Last(replytest.KindText); ev.Text != "❌ Wrong. Correct: A" {
		t.Fatalf("verdict = %q", ev.Text)
	}
	if s.QuizIndex != 0 {
		t.Fatalf("index after answer = %d", s.QuizIndex)
	}

	h.press(t, "quiz_next")
	if s.QuizIndex != 1 {
		t.Fatalf("index after next = %d", s.QuizIndex)
	}
	if q, _ := h.rec.Last(replytest.KindButtons); !strings.Contains(q.Text, "Second?") {
		t.Fatalf("question = %q", q.Text)
	}

	h.text(t, "B")
	if ev, _ := h.rec.Last(replytest.KindText); ev.Text != quizTextHint {
		t.Fatalf("free text in quiz = %q", ev.Text)
	}

	h.rec.Reset()
	h.press(t, "quiz_next")
	if s.Mode() != session.ModeNone || s.QuizIndex != 0 {
		t.Fatalf("session after completion = %s %d", s.Mode(), s.QuizIndex)
	}
	if got := kindsString(h.rec.Kinds()); got != "text,image,text,menu" {
		t.Fatalf("completion events = %s", got)
	}
	if first := h.rec.Events()[0]; first.Text != quiz.CompletedText {
		t.Fatalf("completion text = %q", first.Text)
	}
}

func TestStaleQuizButtons(t *testing.T) {
	h := newHarness(t)
	for _, data := range []string{"quiz_answer:A", "quiz_next"} {
		h.rec.Reset()
		h.press(t, data)
		if ev, _ := h.rec.Last(replytest.KindText); ev.Text != staleQuizText {
			t.Fatalf("%s: reply = %q", data, ev.Text)
		}
		if h.session().Mode() != session.ModeNone {
			t.Fatalf("%s: mode = %s", data, h.session().Mode())
		}
	}
}

func TestCloseResetsFromAnyMode(t *testing.T) {
	h := newHarness(t)
	h.command(t, CommandQuiz)
	h.press(t, "quiz_next")
	h.press(t, "start")
	s := h.session()
	if s.Mode() != session.ModeNone || s.QuizIndex != 0 || s.Persona != "" {
		t.Fatalf("session after close = %s %d %q", s.Mode(), s.QuizIndex, s.Persona)
	}
}

func TestFreeTextIntentRouting(t *testing.T) {
	cases := []struct {
		text   string
		events string
		mode   session.Mode
	}{
		{"tell me a random fact", "image,placeholder,buttons,delete", session.ModeNone},
		{"let's TALK about an interesting FACT", "image,placeholder,buttons,delete", session.ModeNone},
		{"I have a question", "image,text", session.ModeAskingGPT},
		{"can I talk to someone?", "image,buttons", session.ModeNone},
	}
	for _, tc := range cases {
		h := newHarness(t)
		h.text(t, tc.text)
		if got := kindsString(h.rec.Kinds()); got != tc.events {
			t.Errorf("%q: events = %s, want %s", tc.text, got, tc.events)
		}
		if h.session().Mode() != tc.mode {
			t.Errorf("%q: mode = %s, want %s", tc.text, h.session().Mode(), tc.mode)
		}
	}
}

func TestUnrecognizedTextUsesTemplateAndHint(t *testing.T) {
	h := newHarness(t)
	h.text(t, "blorp")

	events := h.rec.Events()
	if len(events) != 2 {
		t.Fatalf("events = %v", h.rec.Kinds())
	}
	if events[0].Text != unrecognizedReplies[3] || events[1].Text != commandHint {
		t.Fatalf("texts = %q / %q", events[0].Text, events[1].Text)
	}
	if h.completer.calls != 0 {
		t.Fatal("unrecognized text must not reach the assistant")
	}
}

func TestDetectIntentPriority(t *testing.T) {
	cases := map[string]intent{
		"random fact please":             intentFact,
		"ask chatgpt something":          intentGPT,
		"chat with a personality":        intentTalk,
		"fact or question or talk":       intentFact,
		"a question about conversations": intentGPT,
		"hello there":                    intentNone,
		"finish this task":               intentNone,
		"a factory tour":                 intentNone,
		"any facts, please?":             intentFact,
		"Ask: what is Go":                intentGPT,
		"let's CHAT!":                    intentTalk,
	}
	for text, want := range cases {
		if got := detectIntent(text); got != want {
			t.Errorf("detectIntent(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestUnknownInputs(t *testing.T) {
	h := newHarness(t)
	if err := h.router.HandleCallback(context.Background(), h.rec, user, "bogus"); err == nil {
		t.Fatal("unknown callback must error")
	}
	if err := h.router.HandleCommand(context.Background(), h.rec, user, "nope"); err == nil {
		t.Fatal("unknown command must error")
	}
	if err := h.router.HandleText(context.Background(), h.rec, user, "   "); err != nil || len(h.rec.Events()) != 0 {
		t.Fatalf("blank text should be ignored, err=%v events=%v", err, h.rec.Kinds())
	}
}
