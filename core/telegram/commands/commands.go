package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
// Order positions the command in the Telegram menu; ties sort by name.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Order       int
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
