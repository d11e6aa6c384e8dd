// Package assistant wraps the chat completion endpoint and keeps the
// per-conversation system prompt and transcript.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCompletionFailed wraps every transport or API failure of a completion call.
var ErrCompletionFailed = errors.New("assistant: completion failed")

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a transcript.
type Turn struct {
	Role Role
	Text string
}

// Completer answers a system prompt plus transcript with the next assistant message.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// Chat holds the system prompt and transcript of one conversation.
type Chat struct {
	mu         sync.Mutex
	completer  Completer
	prompt     string
	transcript []Turn
}

// NewChat returns an empty conversation backed by completer.
func NewChat(completer Completer) *Chat {
	return &Chat{completer: completer}
}

// SetPrompt replaces the system prompt and clears the transcript.
func (c *Chat) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	c.transcript = nil
}

// Prompt returns the current system prompt.
func (c *Chat) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// SendQuestion asks a one-off question under prompt. The transcript is untouched.
func (c *Chat) SendQuestion(ctx context.Context, prompt, message string) (string, error) {
	return complete(ctx, c.completer, prompt, []Turn{{Role: RoleUser, Text: message}})
}

// AddMessage appends text as a user turn, asks for the answer with the full
// transcript and appends it. On failure the user turn is dropped again, so
// the transcript only ever holds complete exchanges.
func (c *Chat) AddMessage(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	turns := append(append([]Turn(nil), c.transcript...), Turn{Role: RoleUser, Text: text})
	answer, err := complete(ctx, c.completer, c.prompt, turns)
	if err != nil {
		return "", err
	}
	c.transcript = append(turns, Turn{Role: RoleAssistant, Text: answer})
	return answer, nil
}

// Transcript returns a copy of the recorded turns.
func (c *Chat) Transcript() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.transcript...)
}

func complete(ctx context.Context, completer Completer, system string, turns []Turn) (string, error) {
	if completer == nil {
		return "", fmt.Errorf("%w: no completer configured", ErrCompletionFailed)
	}
	answer, err := completer.Complete(ctx, system, turns)
	if err != nil {
		if errors.Is(err, ErrCompletionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	return answer, nil
}
