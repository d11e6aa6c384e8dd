package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/gptbot/bot/session"
	tghelpers "github.com/m3rciful/gptbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Stats is a point-in-time view of the bot.
type Stats struct {
	Uptime        string         `json:"uptime"`
	Sessions      int            `json:"sessions"`
	Modes         map[string]int `json:"modes"`
	QuizQuestions int            `json:"quiz_questions"`
	Sent          uint64         `json:"sent"`
	SendErrors    uint64         `json:"send_errors"`
}

// Stats collects the current counters.
func (a *App) Stats() Stats {
	counts := a.sessions.CountByMode()
	modes := make(map[string]int, len(session.Modes))
	for _, m := range session.Modes {
		modes[m.String()] = counts[m]
	}
	st := Stats{
		Uptime:        time.Since(a.started).Truncate(time.Second).String(),
		Sessions:      a.sessions.Len(),
		Modes:         modes,
		QuizQuestions: a.quiz.Len(),
	}
	if d := tghelpers.Dispatcher(); d != nil {
		st.Sent = d.SentCount()
		st.SendErrors = d.ErrorCount()
	}
	return st
}

// Text renders the stats for a chat message.
func (s Stats) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Uptime: %s\n", s.Uptime)
	fmt.Fprintf(&b, "Sessions: %d\n", s.Sessions)
	for _, m := range session.Modes {
		fmt.Fprintf(&b, "  %s: %d\n", m, s.Modes[m.String()])
	}
	fmt.Fprintf(&b, "Quiz questions: %d\n", s.QuizQuestions)
	fmt.Fprintf(&b, "Sent: %d, failed: %d", s.Sent, s.SendErrors)
	return b.String()
}

func (a *App) handleStats(c tele.Context) error {
	return tghelpers.SendText(c, a.Stats().Text())
}
