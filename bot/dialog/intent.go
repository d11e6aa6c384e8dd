package dialog

import (
	"strings"
	"unicode"
)

type intent int

const (
	intentNone intent = iota
	intentFact
	intentGPT
	intentTalk
)

func (i intent) String() string {
	switch i {
	case intentFact:
		return "fact"
	case intentGPT:
		return "gpt"
	case intentTalk:
		return "talk"
	}
	return "none"
}

// intentKeywords is checked in order; the first category with a match wins.
var intentKeywords = []struct {
	intent intent
	words  []string
}{
	{intentFact, []string{"fact", "random", "interesting"}},
	{intentGPT, []string{"question", "ask", "chatgpt", "gpt"}},
	{intentTalk, []string{"talk", "chat", "person", "personality", "conversation"}},
}

// detectIntent guesses what free text sent outside any mode is asking for.
// Keywords match whole words, optionally followed by a plural "s".
func detectIntent(text string) intent {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, set := range intentKeywords {
		for _, kw := range set.words {
			for _, w := range words {
				if w == kw || w == kw+"s" {
					return set.intent
				}
			}
		}
	}
	return intentNone
}
