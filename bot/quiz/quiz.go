// Package quiz walks a user through a fixed, ordered list of questions.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/gptbot/bot/callback"
	"github.com/m3rciful/gptbot/bot/reply"
	"github.com/m3rciful/gptbot/bot/session"
	"github.com/m3rciful/gptbot/core/logger"
)

// ErrNotInQuiz is returned when a quiz operation arrives for a session
// that is not taking the quiz.
var ErrNotInQuiz = errors.New("quiz: session is not taking the quiz")

// DefaultImage is sent with questions that have no image of their own.
const DefaultImage = "quiz"

// Button labels and replies.
const (
	NextLabel       = "Next"
	CloseLabel      = "Close"
	CorrectVerdict  = "✅ Correct!"
	wrongVerdictFmt = "❌ Wrong. Correct: %s"
	CompletedText   = "🏁 That was the last question. Thanks for playing!"
)

// Item is one question.
type Item struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Correct  string   `yaml:"correct"`
	Image    string   `yaml:"image"`
}

// Validate checks that the item can be rendered and answered.
func (it Item) Validate() error {
	if strings.TrimSpace(it.Question) == "" {
		return errors.New("empty question")
	}
	if len(it.Options) < 2 {
		return fmt.Errorf("need at least two options, got %d", len(it.Options))
	}
	seen := make(map[string]struct{}, len(it.Options))
	for _, opt := range it.Options {
		if strings.TrimSpace(opt) == "" {
			return errors.New("empty option")
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
		if !callback.Fits(callback.QuizAnswer(opt)) {
			return fmt.Errorf("option %q exceeds the callback data limit", opt)
		}
	}
	if !slices.Contains(it.Options, it.Correct) {
		return fmt.Errorf("correct answer %q is not one of the options", it.Correct)
	}
	return nil
}

// WrongVerdict is the reply for a wrong answer.
func WrongVerdict(correct string) string {
	return fmt.Sprintf(wrongVerdictFmt, correct)
}

// Engine renders questions and checks answers. It is safe for concurrent
// use; progress lives in the caller's Session.
type Engine struct {
	items []Item
}

// NewEngine validates items and returns an engine over a copy of them.
func NewEngine(items []Item) (*Engine, error) {
	if len(items) == 0 {
		return nil, errors.New("quiz: no items")
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("quiz: item %d: %w", i, err)
		}
	}
	return &Engine{items: slices.Clone(items)}, nil
}

// Len returns the number of questions.
func (e *Engine) Len() int {
	return len(e.items)
}

// Item returns the question at index.
func (e *Engine) Item(index int) (Item, bool) {
	if index < 0 || index >= len(e.items) {
		return Item{}, false
	}
	return e.items[index], true
}

// Start puts s into quiz mode at the first question and renders it.
func (e *Engine) Start(ctx context.Context, r reply.Responder, s *session.Session) error {
	s.SetMode(session.ModeTakingQuiz)
	s.QuizIndex = 0
	logger.Info(ctx, logger.CompQuiz, "quiz.start", slog.Int("items", len(e.items)))
	_, err := e.Render(ctx, r, s)
	return err
}

// Render shows the current question of s. Past the last question it sends
// the completion message, switches s back to ModeNone and reports done.
// The index is left at Len so the caller can see where the quiz ended.
func (e *Engine) Render(ctx context.Context, r reply.Responder, s *session.Session) (done bool, err error) {
	item, ok := e.Item(s.QuizIndex)
	if !ok {
		s.SetMode(session.ModeNone)
		logger.Info(ctx, logger.CompQuiz, "quiz.complete", slog.Int("items", len(e.items)))
		return true, r.SendText(ctx, CompletedText)
	}

	image := item.Image
	if image == "" {
		image = DefaultImage
	}
	if err := r.SendImage(ctx, image); err != nil {
		return false, err
	}
	text := fmt.Sprintf("Question %d/%d\n\n%s", s.QuizIndex+1, len(e.items), item.Question)
	return false, r.SendButtons(ctx, text, questionRows(item))
}

func questionRows(item Item) [][]reply.Button {
	rows := make([][]reply.Button, 0, len(item.Options)+1)
	for _, opt := range item.Options {
		rows = append(rows, []reply.Button{{Text: opt, Data: callback.QuizAnswer(opt)}})
	}
	return append(rows, []reply.Button{
		{Text: NextLabel, Data: callback.QuizNext},
		{Text: CloseLabel, Data: callback.Start},
	})
}

// Submit checks option against the current question and sends the verdict.
// It never moves the quiz forward.
func (e *Engine) Submit(ctx context.Context, r reply.Responder, s *session.Session, option string) (bool, error) {
	if s.Mode() != session.ModeTakingQuiz {
		return false, ErrNotInQuiz
	}
	item, ok := e.Item(s.QuizIndex)
	if !ok {
		return false, ErrNotInQuiz
	}
	correct := option == item.Correct
	logger.Info(ctx, logger.CompQuiz, "quiz.answer",
		slog.Int("index", s.QuizIndex),
		slog.Bool("correct", correct),
	)
	if correct {
		return true, r.SendText(ctx, CorrectVerdict)
	}
	return false, r.SendText(ctx, WrongVerdict(item.Correct))
}

// Advance moves to the next question and renders it. Skipping an unanswered
// question is allowed. done is true on the call that finishes the quiz.
func (e *Engine) Advance(ctx context.Context, r reply.Responder, s *session.Session) (done bool, err error) {
	if s.Mode() != session.ModeTakingQuiz {
		return false, ErrNotInQuiz
	}
	if s.QuizIndex < len(e.items) {
		s.QuizIndex++
	}
	return e.Render(ctx, r, s)
}
