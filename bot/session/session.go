// Package session keeps the per-user conversation state.
package session

import (
	"sync/atomic"

	"github.com/m3rciful/gptbot/bot/assistant"
	"github.com/m3rciful/gptbot/core/telegram/state"
)

// Mode is the conversation context that decides how free text is handled.
type Mode int32

const (
	ModeNone Mode = iota
	ModeAskingGPT
	ModeTalkingPersona
	ModeTakingQuiz
)

// Modes lists every mode in declaration order.
var Modes = []Mode{ModeNone, ModeAskingGPT, ModeTalkingPersona, ModeTakingQuiz}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAskingGPT:
		return "asking_gpt"
	case ModeTalkingPersona:
		return "talking_persona"
	case ModeTakingQuiz:
		return "taking_quiz"
	}
	return "unknown"
}

// Session is the state of one user. Events of a user are handled one at a
// time, so only the mode is read concurrently (by stats) and needs to be atomic.
type Session struct {
	UserID int64

	mode atomic.Int32

	// Persona is the selected persona id while talking to a persona.
	Persona string
	// QuizIndex is the current question while taking the quiz.
	QuizIndex int

	Chat *assistant.Chat
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	return Mode(s.mode.Load())
}

// SetMode switches the mode without touching other fields.
func (s *Session) SetMode(m Mode) {
	s.mode.Store(int32(m))
}

// Reset clears every field, including the assistant prompt and transcript.
func (s *Session) Reset() {
	s.SetMode(ModeNone)
	s.Persona = ""
	s.QuizIndex = 0
	s.Chat.SetPrompt("")
}

// Store owns one Session per user for the lifetime of the process.
type Store struct {
	sessions state.Store[*Session]
}

// NewStore creates an empty store. Every new session gets its own Chat on completer.
func NewStore(completer assistant.Completer) *Store {
	return &Store{
		sessions: state.NewMemoryStore(func(userID int64) *Session {
			return &Session{UserID: userID, Chat: assistant.NewChat(completer)}
		}),
	}
}

// Get returns the user's session, creating it on first use.
func (s *Store) Get(userID int64) *Session {
	return s.sessions.Get(userID)
}

// Len returns the number of known sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}

// CountByMode returns how many sessions are in each mode.
func (s *Store) CountByMode() map[Mode]int {
	counts := make(map[Mode]int, len(Modes))
	s.sessions.Range(func(_ int64, sess *Session) bool {
		counts[sess.Mode()]++
		return true
	})
	return counts
}
