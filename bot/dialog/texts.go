package dialog

import (
	"github.com/m3rciful/gptbot/bot/callback"
	"github.com/m3rciful/gptbot/bot/reply"
)

// Image keys sent when entering a mode.
const (
	imageStart  = "start"
	imageRandom = "random"
	imageGPT    = "gpt"
	imageTalk   = "talk"
)

const (
	randomPlaceholder  = "Looking for random fact..."
	randomQuestion     = "Tell me a random fact"
	randomFailedText   = "An error occurred while getting a random fact."
	gptPlaceholder     = "ChatGPT is thinking..."
	gptFailedText      = "Sorry, ChatGPT could not answer right now. Please try again."
	personaTypingFmt   = "%s is typing..."
	personaFailedFmt   = "Sorry, %s is not available right now. Please try again."
	personaGreetingFmt = "You are now chatting with %s. Say hello!"
	personaReplyFmt    = "%s: %s"
	choosePersonaText  = "Please choose a personality to chat with first."
	unknownPersonaText = "I don't know this personality. Please choose one from the list."
	staleQuizText      = "This quiz is no longer active. Send /quiz to start a new one."
	quizTextHint       = "Please answer with the buttons under the question, or press Close to stop."
	commandHint        = "Try /random, /gpt, /talk or /quiz. /start opens the main menu."
	unknownCommandFmt  = "Unknown command %s."
)

var (
	closeButton       = reply.Button{Text: "Close", Data: callback.Start}
	anotherFactButton = reply.Button{Text: "Want another fact", Data: callback.Random}
)

var unrecognizedReplies = [...]string{
	"Hmm, I'm not sure what you mean.",
	"Sorry, I didn't get that.",
	"That one went over my head.",
	"I'm afraid I don't understand.",
	"Could you put that another way?",
	"Interesting! But I don't know what to do with it.",
	"I'm just a bot, and that confused me.",
	"Not sure how to help with that yet.",
	"My circuits could not make sense of that.",
	"Oops, I don't have an answer for that.",
}

var mainMenu = []reply.MenuEntry{
	{Command: string(CommandStart), Description: "Main menu"},
	{Command: string(CommandRandom), Description: "Get a random fact"},
	{Command: string(CommandGPT), Description: "Ask ChatGPT"},
	{Command: string(CommandTalk), Description: "Talk with a famous person"},
	{Command: string(CommandQuiz), Description: "Test your knowledge"},
}
