// messages.go contains message templates and formatting helpers for Telegram.

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	msgWelcome = "Hi! I'm a quiz bot. Tell me a topic and I'll quiz you on it.\n\n" +
		"Try something like \"quiz me about Python programming\" or \"I want a quiz on World War II\".\n\n" +
		"Say \"new quiz\" any time to switch topics, or \"exit\" to stop."
	msgUnknownCommand = "Unknown command. Just tell me a quiz topic in plain words, " +
		"or use /start to see how this works."
	msgInternalError = "Something went wrong on my side. Please try again later."
	msgGoodbye       = "Thanks for playing! Come back any time for another quiz."

	msgTopicNeeded = "What would you like to be quizzed on? Name a subject, " +
		"like \"Python programming\" or \"World War II\"."
	msgGenerationFailed = "I couldn't come up with a question just now. " +
		"Say \"continue\" to try again, or \"new quiz\" to pick another topic."
	msgAnswerFormat = "Please answer the question above. For multiple choice, " +
		"reply with a letter (A, B, C or D); for true/false, reply \"true\" or \"false\"."
	msgGeneralHelp = "You can answer the current question, say \"continue\" for the next one, " +
		"\"new quiz\" to change topics, or \"exit\" to stop."
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}
