// Package dialog routes commands, button presses and free text to the
// conversation mode that handles them.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"strings"

	"github.com/m3rciful/gptbot/bot/assets"
	"github.com/m3rciful/gptbot/bot/assistant"
	"github.com/m3rciful/gptbot/bot/callback"
	"github.com/m3rciful/gptbot/bot/quiz"
	"github.com/m3rciful/gptbot/bot/reply"
	"github.com/m3rciful/gptbot/bot/session"
	"github.com/m3rciful/gptbot/core/logger"
)

// Command is a bot command name without the leading slash.
type Command string

const (
	CommandStart  Command = "start"
	CommandRandom Command = "random"
	CommandGPT    Command = "gpt"
	CommandTalk   Command = "talk"
	CommandQuiz   Command = "quiz"
)

// Texts supplies system prompts and user-facing messages by key.
type Texts interface {
	Prompt(key string) (string, error)
	Message(key string) (string, error)
}

// Options wires a Router.
type Options struct {
	Sessions *session.Store
	Texts    Texts
	Personas []assets.Persona
	Quiz     *quiz.Engine
	// Intn picks one of the unrecognized-input replies. Defaults to math/rand/v2.
	Intn func(n int) int
}

type persona struct {
	assets.Persona
	prompt string
}

// Router is the conversation state machine. One event of a user must be
// fully handled before the next event of the same user starts.
type Router struct {
	sessions *session.Store
	quiz     *quiz.Engine
	intn     func(n int) int

	personas map[string]persona
	order    []string

	randomPrompt string
	gptPrompt    string
	startText    string
	gptText      string
	talkText     string
}

// New resolves every prompt and message up front so a missing resource
// fails at startup rather than mid-conversation.
func New(opts Options) (*Router, error) {
	if opts.Sessions == nil || opts.Texts == nil || opts.Quiz == nil {
		return nil, errors.New("dialog: sessions, texts and quiz are required")
	}
	rt := &Router{
		sessions: opts.Sessions,
		quiz:     opts.Quiz,
		intn:     opts.Intn,
		personas: make(map[string]persona, len(opts.Personas)),
	}
	if rt.intn == nil {
		rt.intn = rand.Intn
	}

	var err error
	load := func(get func(string) (string, error), key string, into *string) {
		if err != nil {
			return
		}
		if *into, err = get(key); err != nil {
			err = fmt.Errorf("dialog: %w", err)
		}
	}
	load(opts.Texts.Prompt, "random", &rt.randomPrompt)
	load(opts.Texts.Prompt, "gpt", &rt.gptPrompt)
	load(opts.Texts.Message, "start", &rt.startText)
	load(opts.Texts.Message, "gpt", &rt.gptText)
	load(opts.Texts.Message, "talk", &rt.talkText)
	if err != nil {
		return nil, err
	}

	for _, p := range opts.Personas {
		if !callback.Fits(callback.Talk(p.ID)) {
			return nil, fmt.Errorf("dialog: persona id %q is too long", p.ID)
		}
		if _, dup := rt.personas[p.ID]; dup {
			return nil, fmt.Errorf("dialog: duplicate persona %q", p.ID)
		}
		prompt, err := opts.Texts.Prompt(p.Prompt)
		if err != nil {
			return nil, fmt.Errorf("dialog: persona %s: %w", p.ID, err)
		}
		rt.personas[p.ID] = persona{Persona: p, prompt: prompt}
		rt.order = append(rt.order, p.ID)
	}
	return rt, nil
}

// MainMenu returns the command menu in display order.
func MainMenu() []reply.MenuEntry {
	return slices.Clone(mainMenu)
}

// HandleCommand runs a bot command for userID.
func (rt *Router) HandleCommand(ctx context.Context, r reply.Responder, userID int64, cmd Command) error {
	s := rt.sessions.Get(userID)
	switch cmd {
	case CommandStart:
		return rt.start(ctx, r, s)
	case CommandRandom:
		return rt.random(ctx, r, s)
	case CommandGPT:
		return rt.gpt(ctx, r, s)
	case CommandTalk:
		return rt.talk(ctx, r, s)
	case CommandQuiz:
		s.Reset()
		rt.entered(ctx, session.ModeTakingQuiz, "")
		return rt.quiz.Start(ctx, r, s)
	}
	return fmt.Errorf("dialog: unknown command %q", cmd)
}

// HandleCallback decodes a button payload and runs it for userID.
func (rt *Router) HandleCallback(ctx context.Context, r reply.Responder, userID int64, data string) error {
	cb, err := callback.Parse(data)
	if err != nil {
		return err
	}
	s := rt.sessions.Get(userID)
	switch cb.Kind {
	case callback.KindStart:
		return rt.start(ctx, r, s)
	case callback.KindRandom:
		return rt.random(ctx, r, s)
	case callback.KindTalk:
		return rt.selectPersona(ctx, r, s, cb.Arg)
	case callback.KindQuizAnswer:
		_, err := rt.quiz.Submit(ctx, r, s, cb.Arg)
		if errors.Is(err, quiz.ErrNotInQuiz) {
			return rt.staleQuiz(ctx, r, s)
		}
		return err
	case callback.KindQuizNext:
		done, err := rt.quiz.Advance(ctx, r, s)
		if errors.Is(err, quiz.ErrNotInQuiz) {
			return rt.staleQuiz(ctx, r, s)
		}
		if err != nil || !done {
			return err
		}
		return rt.start(ctx, r, s)
	}
	return fmt.Errorf("dialog: unhandled callback %s", cb.Kind)
}

// HandleText interprets free text according to the session mode.
// Slash-prefixed text is treated as an unknown command, never as a question.
func (rt *Router) HandleText(ctx context.Context, r reply.Responder, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return rt.HandleUnknownCommand(ctx, r, userID, text)
	}
	s := rt.sessions.Get(userID)
	switch mode := s.Mode(); mode {
	case session.ModeNone:
		return rt.sniff(ctx, r, s, text)
	case session.ModeAskingGPT:
		return rt.askGPT(ctx, r, s, text)
	case session.ModeTalkingPersona:
		return rt.askPersona(ctx, r, s, text)
	case session.ModeTakingQuiz:
		return r.SendText(ctx, quizTextHint)
	default:
		return fmt.Errorf("dialog: unhandled mode %s", mode)
	}
}

// HandleUnknownCommand answers a slash command the bot does not know.
// The session is left as it is.
func (rt *Router) HandleUnknownCommand(ctx context.Context, r reply.Responder, userID int64, text string) error {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	logger.Info(ctx, logger.CompDialog, "command.unknown",
		slog.String("command", logger.SanitizeLimit(word, 32)),
		slog.String("mode", rt.sessions.Get(userID).Mode().String()),
	)
	return r.SendText(ctx, fmt.Sprintf(unknownCommandFmt, word)+" "+commandHint)
}

func (rt *Router) entered(ctx context.Context, mode session.Mode, personaID string) {
	logger.Info(ctx, logger.CompDialog, "mode.enter",
		slog.String("mode", mode.String()),
		slog.String("persona", personaID),
	)
}

func (rt *Router) start(ctx context.Context, r reply.Responder, s *session.Session) error {
	s.Reset()
	rt.entered(ctx, session.ModeNone, "")
	if err := r.SendImage(ctx, imageStart); err != nil {
		return err
	}
	if err := r.SendText(ctx, rt.startText); err != nil {
		return err
	}
	return r.ShowMenu(ctx, MainMenu())
}

func (rt *Router) random(ctx context.Context, r reply.Responder, s *session.Session) error {
	s.Reset()
	if err := r.SendImage(ctx, imageRandom); err != nil {
		return err
	}
	placeholder, err := r.SendPlaceholder(ctx, randomPlaceholder)
	if err != nil {
		return err
	}
	defer rt.dropPlaceholder(ctx, r, placeholder)

	fact, err := s.Chat.SendQuestion(ctx, rt.randomPrompt, randomQuestion)
	if err != nil {
		return rt.completionFailed(ctx, r, err, "random", randomFailedText)
	}
	return r.SendButtons(ctx, fact, reply.Column(anotherFactButton, closeButton))
}

func (rt *Router) gpt(ctx context.Context, r reply.Responder, s *session.Session) error {
	s.Reset()
	s.SetMode(session.ModeAskingGPT)
	s.Chat.SetPrompt(rt.gptPrompt)
	rt.entered(ctx, session.ModeAskingGPT, "")
	if err := r.SendImage(ctx, imageGPT); err != nil {
		return err
	}
	return r.SendText(ctx, rt.gptText)
}

func (rt *Router) talk(ctx context.Context, r reply.Responder, s *session.Session) error {
	s.Reset()
	if err := r.SendImage(ctx, imageTalk); err != nil {
		return err
	}
	return r.SendButtons(ctx, rt.talkText, rt.personaRows())
}

func (rt *Router) personaRows() [][]reply.Button {
	buttons := make([]reply.Button, 0, len(rt.order)+1)
	for _, id := range rt.order {
		buttons = append(buttons, reply.Button{Text: rt.personas[id].Button, Data: callback.Talk(id)})
	}
	return reply.Column(append(buttons, closeButton)...)
}

func (rt *Router) selectPersona(ctx context.Context, r reply.Responder, s *session.Session, id string) error {
	p, ok := rt.personas[id]
	if !ok {
		logger.Warn(ctx, logger.CompDialog, "persona.unknown", slog.String("persona", id))
		return r.SendButtons(ctx, unknownPersonaText, rt.personaRows())
	}
	s.Reset()
	s.SetMode(session.ModeTalkingPersona)
	s.Persona = id
	s.Chat.SetPrompt(p.prompt)
	rt.entered(ctx, session.ModeTalkingPersona, id)

	image := p.Image
	if image == "" {
		image = imageTalk
	}
	if err := r.SendImage(ctx, image); err != nil {
		return err
	}
	return r.SendButtons(ctx, fmt.Sprintf(personaGreetingFmt, p.Name), reply.Column(closeButton))
}

func (rt *Router) askGPT(ctx context.Context, r reply.Responder, s *session.Session, text string) error {
	placeholder, err := r.SendPlaceholder(ctx, gptPlaceholder)
	if err != nil {
		return err
	}
	defer rt.dropPlaceholder(ctx, r, placeholder)

	answer, err := s.Chat.AddMessage(ctx, text)
	if err != nil {
		return rt.completionFailed(ctx, r, err, "gpt", gptFailedText)
	}
	return r.SendButtons(ctx, answer, reply.Column(closeButton))
}

// askPersona never calls the assistant while no valid persona is selected;
// the user is asked to pick one instead.
func (rt *Router) askPersona(ctx context.Context, r reply.Responder, s *session.Session, text string) error {
	p, ok := rt.personas[s.Persona]
	if !ok {
		logger.Warn(ctx, logger.CompDialog, "session.invalid",
			slog.String("mode", s.Mode().String()),
			slog.String("persona", s.Persona),
		)
		return r.SendButtons(ctx, choosePersonaText, rt.personaRows())
	}

	placeholder, err := r.SendPlaceholder(ctx, fmt.Sprintf(personaTypingFmt, p.Name))
	if err != nil {
		return err
	}
	defer rt.dropPlaceholder(ctx, r, placeholder)

	answer, err := s.Chat.AddMessage(ctx, text)
	if err != nil {
		return rt.completionFailed(ctx, r, err, "persona", fmt.Sprintf(personaFailedFmt, p.Name))
	}
	return r.SendButtons(ctx, fmt.Sprintf(personaReplyFmt, p.Name, answer), reply.Column(closeButton))
}

func (rt *Router) sniff(ctx context.Context, r reply.Responder, s *session.Session, text string) error {
	in := detectIntent(text)
	logger.Debug(ctx, logger.CompDialog, "intent", slog.String("intent", in.String()))
	switch in {
	case intentFact:
		return rt.random(ctx, r, s)
	case intentGPT:
		return rt.gpt(ctx, r, s)
	case intentTalk:
		return rt.talk(ctx, r, s)
	}
	if err := r.SendText(ctx, unrecognizedReplies[rt.intn(len(unrecognizedReplies))]); err != nil {
		return err
	}
	return r.SendText(ctx, commandHint)
}

func (rt *Router) staleQuiz(ctx context.Context, r reply.Responder, s *session.Session) error {
	logger.Info(ctx, logger.CompQuiz, "quiz.stale", slog.String("mode", s.Mode().String()))
	return r.SendText(ctx, staleQuizText)
}

// completionFailed turns ErrCompletionFailed into an apology. The mode is
// kept so the user can simply try again. Other errors are returned as is.
func (rt *Router) completionFailed(ctx context.Context, r reply.Responder, err error, source, apology string) error {
	if !errors.Is(err, assistant.ErrCompletionFailed) {
		return err
	}
	logger.Error(ctx, logger.CompDialog, "completion.failed",
		slog.String("source", source),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	return r.SendText(ctx, apology)
}

func (rt *Router) dropPlaceholder(ctx context.Context, r reply.Responder, msg reply.Message) {
	if err := r.Delete(ctx, msg); err != nil {
		logger.Warn(ctx, logger.CompDialog, "placeholder.delete", slog.Any("err", err))
	}
}
