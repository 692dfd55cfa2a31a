package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

func HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery, deps BotDeps) {
	userID := callbackQuery.From.ID
	loc := localizerFor(callbackQuery.From, deps)
	if callbackQuery.Message == nil {
		deps.Logger.Error("Callback query message is nil", zap.Int64("user_id", userID), zap.String("data", callbackQuery.Data))
		answerCallback(callbackQuery.ID, loc.T("callback_stale"), deps)
		return
	}
	chatID := callbackQuery.Message.Chat.ID
	messageID := callbackQuery.Message.MessageID
	data := callbackQuery.Data

	deps.Logger.Debug("Callback received", zap.Int64("user_id", userID), zap.String("data", data))

	if group, key, ok := parseOptionData(data); ok {
		if _, known := catalog.Lookup(group, key); !known {
			deps.Logger.Warn("Unknown option in callback", zap.Int64("user_id", userID), zap.String("data", data))
			answerCallback(callbackQuery.ID, loc.T("callback_stale"), deps)
			return
		}
		applyCallbackInput(callbackQuery, wizard.Choice(group, key), loc, deps)
		return
	}

	switch data {
	// --- Menu Callbacks ---
	case cbAcceptTerms:
		if err := deps.Ledger.AcceptTerms(context.Background(), userID); err != nil {
			answerCallback(callbackQuery.ID, "", deps)
			sendGenericError(chatID, userID, "AcceptTerms", err, loc, deps)
			return
		}
		answerCallback(callbackQuery.ID, "", deps)
		deleteMessage(chatID, messageID, deps)
		showMainMenu(chatID, loc, deps)

	case cbSupport:
		answerCallback(callbackQuery.ID, "", deps)
		showSupport(chatID, loc, deps)

	case cbTopup:
		answerCallback(callbackQuery.ID, "", deps)
		showTopup(chatID, userID, loc, deps)

	case cbBackToMain:
		answerCallback(callbackQuery.ID, "", deps)
		deps.Sessions.Discard(userID)
		deleteMessage(chatID, messageID, deps)
		showMainMenu(chatID, loc, deps)

	// --- Wizard Callbacks ---
	case cbCreatePhoto, cbRestart:
		answerCallback(callbackQuery.ID, "", deps)
		startWizard(chatID, callbackQuery.From, loc, deps)

	case cbSkipLength:
		applyCallbackInput(callbackQuery, wizard.Skip(), loc, deps)

	case cbRefine:
		applyCallbackInput(callbackQuery, wizard.Refine(), loc, deps)

	case cbGenerate:
		pad, ok := deps.Sessions.Get(userID)
		if !ok || pad.Step != wizard.StepConfirmation {
			answerCallback(callbackQuery.ID, loc.T("callback_stale"), deps)
			return
		}
		answerCallback(callbackQuery.ID, "", deps)
		runGeneration(chatID, userID, loc, deps)

	default:
		deps.Logger.Warn("Unhandled callback data", zap.Int64("user_id", userID), zap.String("data", data))
		answerCallback(callbackQuery.ID, loc.T("callback_stale"), deps)
	}
}

// applyCallbackInput applies a button tap. Taps on buttons from an earlier
// step only get a toast; other rejections re-prompt in the chat.
func applyCallbackInput(callbackQuery *tgbotapi.CallbackQuery, in wizard.Input, loc i18n.Localizer, deps BotDeps) {
	userID := callbackQuery.From.ID
	pad, tr, err := applyInput(userID, in, deps)
	if errors.Is(err, wizard.ErrNoSession) {
		answerCallback(callbackQuery.ID, loc.T("session_expired"), deps)
		return
	}
	if err != nil {
		answerCallback(callbackQuery.ID, "", deps)
		sendGenericError(callbackQuery.Message.Chat.ID, userID, "ApplyCallback", err, loc, deps)
		return
	}
	if !tr.Accepted {
		if tr.Reason == wizard.RejectWrongInput {
			answerCallback(callbackQuery.ID, loc.T("callback_stale"), deps)
			return
		}
		answerCallback(callbackQuery.ID, "", deps)
		rejectInput(pad, tr, loc, deps)
		return
	}
	answerCallback(callbackQuery.ID, "", deps)
	promptStep(pad, loc, deps)
}
