// Package callback defines the inline button payloads and decodes them into
// a tagged value once, at the transport boundary.
package callback

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned for payloads outside the contract.
var ErrUnknown = errors.New("callback: unknown payload")

// Payloads and payload prefixes.
const (
	Start            = "start"
	Random           = "random"
	QuizNext         = "quiz_next"
	TalkPrefix       = "talk_"
	QuizAnswerPrefix = "quiz_answer:"
)

// maxDataLen is the Bot API limit for callback_data, in bytes.
const maxDataLen = 64

// Kind discriminates Callback.
type Kind int

const (
	KindStart Kind = iota + 1
	KindRandom
	KindTalk
	KindQuizAnswer
	KindQuizNext
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindRandom:
		return "random"
	case KindTalk:
		return "talk"
	case KindQuizAnswer:
		return "quiz_answer"
	case KindQuizNext:
		return "quiz_next"
	}
	return "unknown"
}

// Callback is a decoded button press. Arg holds the persona id for KindTalk
// and the chosen option for KindQuizAnswer.
type Callback struct {
	Kind Kind
	Arg  string
}

// Parse decodes raw callback data.
func Parse(data string) (Callback, error) {
	switch data {
	case Start:
		return Callback{Kind: KindStart}, nil
	case Random:
		return Callback{Kind: KindRandom}, nil
	case QuizNext:
		return Callback{Kind: KindQuizNext}, nil
	}
	if id, ok := strings.CutPrefix(data, TalkPrefix); ok && id != "" {
		return Callback{Kind: KindTalk, Arg: id}, nil
	}
	if option, ok := strings.CutPrefix(data, QuizAnswerPrefix); ok && option != "" {
		return Callback{Kind: KindQuizAnswer, Arg: option}, nil
	}
	return Callback{}, fmt.Errorf("%w: %q", ErrUnknown, data)
}

// Talk returns the payload selecting persona id.
func Talk(id string) string {
	return TalkPrefix + id
}

// QuizAnswer returns the payload submitting option.
func QuizAnswer(option string) string {
	return QuizAnswerPrefix + option
}

// Fits reports whether payload stays within the Bot API callback_data limit.
func Fits(payload string) bool {
	return len(payload) <= maxDataLen
}
