// Package reply describes the outbound primitives the conversation logic
// needs from a messaging transport.
package reply

import "context"

// Button is an inline button whose Data is delivered verbatim as callback data.
type Button struct {
	Text string
	Data string
}

// Message identifies a sent message so it can be deleted later.
type Message struct {
	ChatID int64
	ID     int
}

// MenuEntry is one item of the chat command menu. Command has no leading slash.
type MenuEntry struct {
	Command     string
	Description string
}

// Responder sends replies to the chat the current event came from.
// Text is always sent as plain text without a parse mode.
type Responder interface {
	SendImage(ctx context.Context, key string) error
	SendText(ctx context.Context, text string) error
	SendButtons(ctx context.Context, text string, rows [][]Button) error
	SendPlaceholder(ctx context.Context, text string) (Message, error)
	Delete(ctx context.Context, msg Message) error
	ShowMenu(ctx context.Context, entries []MenuEntry) error
}

// Column lays buttons out one per row.
func Column(buttons ...Button) [][]Button {
	rows := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}
	return rows
}
