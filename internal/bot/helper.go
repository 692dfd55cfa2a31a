package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
)

// maxMessageLen keeps outgoing texts under Telegram's 4096 limit.
const maxMessageLen = 4090

// localizerFor picks the user's language from the Telegram client locale.
func localizerFor(user *tgbotapi.User, deps BotDeps) i18n.Localizer {
	if user == nil {
		return deps.I18n.For("")
	}
	return deps.I18n.For(user.LanguageCode)
}

// escape makes user or config supplied text safe inside a Markdown message.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func clip(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	return strings.ToValidUTF8(text[:maxMessageLen-3], "") + "..."
}

// sendText sends a Markdown message with an optional inline keyboard.
func sendText(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup, deps BotDeps) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, clip(text))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := deps.Bot.Send(msg)
	if err != nil {
		deps.Logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent, err
}

// sendPlain sends text without any parse mode.
func sendPlain(chatID int64, text string, deps BotDeps) (tgbotapi.Message, error) {
	sent, err := deps.Bot.Send(tgbotapi.NewMessage(chatID, clip(text)))
	if err != nil {
		deps.Logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent, err
}

func deleteMessage(chatID int64, messageID int, deps BotDeps) {
	if messageID == 0 {
		return
	}
	if _, err := deps.Bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		deps.Logger.Debug("Failed to delete message", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
}

// answerCallback acknowledges a button tap, optionally with a toast.
func answerCallback(callbackID, text string, deps BotDeps) {
	if _, err := deps.Bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		deps.Logger.Debug("Failed to answer callback query", zap.Error(err))
	}
}

// sendGenericError logs err and shows the user a neutral message.
func sendGenericError(chatID int64, userID int64, operation string, err error, loc i18n.Localizer, deps BotDeps) {
	deps.Logger.Error("Operation failed", zap.String("operation", operation), zap.Error(err), zap.Int64("user_id", userID))
	sendPlain(chatID, loc.T("error_generic"), deps)
}

// panicReport formats a recovered panic for administrators.
func panicReport(userID int64, value interface{}, stack string) string {
	report := fmt.Sprintf("☢️ PANIC RECOVERED ☢️\nUser: %d\nError: %v\n\nTraceback:\n```\n%s\n```", userID, value, stack)
	if len(report) > maxMessageLen {
		report = strings.ToValidUTF8(report[:maxMessageLen-20], "") + "\n...(truncated)```"
	}
	return report
}
