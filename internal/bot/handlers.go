package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

const photoDownloadTimeout = 30 * time.Second

func HandleUpdate(update tgbotapi.Update, deps BotDeps) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := string(debug.Stack())
			deps.Logger.Error("Panic recovered in HandleUpdate", zap.Any("panic_value", r), zap.String("stack", stackTrace))

			var chatID, userID int64
			var user *tgbotapi.User
			if update.Message != nil {
				chatID = update.Message.Chat.ID
				user = update.Message.From
			} else if update.CallbackQuery != nil {
				user = update.CallbackQuery.From
				if update.CallbackQuery.Message != nil {
					chatID = update.CallbackQuery.Message.Chat.ID
				}
			}
			if user != nil {
				userID = user.ID
			}

			if chatID != 0 {
				if deps.Authorizer.IsAdmin(userID) {
					msg := tgbotapi.NewMessage(chatID, panicReport(userID, r, stackTrace))
					msg.ParseMode = tgbotapi.ModeMarkdown
					deps.Bot.Send(msg)
				} else {
					sendPlain(chatID, localizerFor(user, deps).T("error_generic"), deps)
				}
			}
		}
	}()

	if update.Message != nil {
		if update.Message.From == nil {
			return
		}
		HandleMessage(update.Message, deps)
	} else if update.CallbackQuery != nil {
		HandleCallbackQuery(update.CallbackQuery, deps)
	}
}

func HandleMessage(message *tgbotapi.Message, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID
	loc := localizerFor(message.From, deps)

	if message.IsCommand() {
		deps.Logger.Debug("Command received", zap.Int64("user_id", userID), zap.String("command", message.Command()))
		switch message.Command() {
		case "start":
			HandleStartCommand(message, loc, deps)
		case "help":
			HandleHelpCommand(chatID, userID, loc, deps)
		case "balance":
			balance, err := deps.Ledger.GetBalance(context.Background(), userID)
			if err != nil {
				sendGenericError(chatID, userID, "GetBalance", err, loc, deps)
				return
			}
			sendText(chatID, loc.T("balance_text", "balance", balance), nil, deps)
		case "cancel":
			HandleCancelCommand(chatID, userID, loc, deps)
		case "version":
			sendText(chatID, loc.T("version_text",
				"version", escape(deps.Version),
				"build_date", escape(deps.BuildDate),
				"go_version", escape(runtime.Version()),
			), nil, deps)
		// --- Admin Commands ---
		case "add_balance":
			HandleAddBalanceCommand(message, loc, deps)
		case "set_balance":
			HandleSetBalanceCommand(message, loc, deps)
		case "stats":
			HandleStatsCommand(message, loc, deps)
		default:
			sendText(chatID, loc.T("unknown_command"), nil, deps)
		}
		return
	}

	if fileID, ok := uploadedImage(message); ok {
		HandlePhotoMessage(message, fileID, loc, deps)
		return
	}

	if message.Text != "" {
		HandleTextMessage(message, loc, deps)
		return
	}

	deps.Logger.Debug("Ignoring non-command, non-photo, non-text message", zap.Int64("user_id", userID))
}

// uploadedImage returns the file id of the highest resolution photo, or of
// an image sent as a document.
func uploadedImage(message *tgbotapi.Message) (string, bool) {
	if len(message.Photo) > 0 {
		return message.Photo[len(message.Photo)-1].FileID, true
	}
	if message.Document != nil && strings.HasPrefix(message.Document.MimeType, "image/") {
		return message.Document.FileID, true
	}
	return "", false
}

func HandleStartCommand(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) {
	ctx := context.Background()
	user := message.From
	chatID := message.Chat.ID

	// Back to the menu: an unfinished run and its photo are dropped.
	deps.Sessions.Discard(user.ID)

	fullName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if err := deps.Ledger.TouchUser(ctx, user.ID, user.UserName, fullName); err != nil {
		sendGenericError(chatID, user.ID, "TouchUser", err, loc, deps)
		return
	}

	accepted, err := deps.Ledger.HasAcceptedTerms(ctx, user.ID)
	if err != nil {
		sendGenericError(chatID, user.ID, "HasAcceptedTerms", err, loc, deps)
		return
	}
	if accepted {
		showMainMenu(chatID, loc, deps)
		return
	}
	showWelcome(chatID, loc, deps)
}

func HandleHelpCommand(chatID, userID int64, loc i18n.Localizer, deps BotDeps) {
	text := loc.T("help_text")
	if deps.Authorizer.IsAdmin(userID) {
		text += "\n\n" + loc.T("help_admin")
	}
	sendText(chatID, text, nil, deps)
}

// HandleCancelCommand discards the wizard run. A generation that was already
// confirmed keeps running; its credit is settled by the orchestrator.
func HandleCancelCommand(chatID, userID int64, loc i18n.Localizer, deps BotDeps) {
	key := "cancel_nothing"
	if _, ok := deps.Sessions.Get(userID); ok {
		deps.Sessions.Discard(userID)
		key = "cancel_done"
		deps.Logger.Info("Wizard cancelled", zap.Int64("user_id", userID))
	}
	keyboard := mainMenuKeyboard(loc)
	sendText(chatID, loc.T(key), &keyboard, deps)
}

func HandlePhotoMessage(message *tgbotapi.Message, fileID string, loc i18n.Localizer, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID

	pad, ok := deps.Sessions.Get(userID)
	if !ok {
		sendText(chatID, loc.T("no_session_hint"), nil, deps)
		return
	}
	if pad.Step != wizard.StepPhoto {
		rejectInput(pad, wizard.Transition{From: pad.Step, To: pad.Step, Reason: wizard.RejectWrongInput}, loc, deps)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), photoDownloadTimeout)
	defer cancel()
	path, err := deps.Photos.Fetch(ctx, fileID)
	if err != nil {
		deps.Logger.Error("Failed to cache uploaded photo", zap.Int64("user_id", userID), zap.Error(err))
		sendText(chatID, loc.T("photo_failed"), nil, deps)
		return
	}

	pad, tr, err := applyInput(userID, wizard.Photo(path), deps)
	if err != nil || !tr.Accepted {
		wizard.RemovePhoto(path, deps.Logger)
		if err != nil {
			sendText(chatID, loc.T("session_expired"), nil, deps)
			return
		}
		rejectInput(pad, tr, loc, deps)
		return
	}
	promptStep(pad, loc, deps)
}

func HandleTextMessage(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID

	pad, tr, err := applyInput(userID, wizard.Text(message.Text), deps)
	if errors.Is(err, wizard.ErrNoSession) {
		sendText(chatID, loc.T("no_session_hint"), nil, deps)
		return
	}
	if err != nil {
		sendGenericError(chatID, userID, "ApplyText", err, loc, deps)
		return
	}
	if !tr.Accepted {
		rejectInput(pad, tr, loc, deps)
		return
	}
	promptStep(pad, loc, deps)
}

// --- Menu Screens ---

func showWelcome(chatID int64, loc i18n.Localizer, deps BotDeps) {
	keyboard := termsKeyboard(loc)
	sendText(chatID, loc.T("welcome"), &keyboard, deps)
}

func showMainMenu(chatID int64, loc i18n.Localizer, deps BotDeps) {
	keyboard := mainMenuKeyboard(loc)
	sendText(chatID, loc.T("main_menu"), &keyboard, deps)
}

func showSupport(chatID int64, loc i18n.Localizer, deps BotDeps) {
	text := loc.T("support_missing")
	if deps.Config.SupportUsername != "" {
		text = loc.T("support_text", "username", escape(deps.Config.SupportUsername))
	}
	keyboard := backKeyboard(loc)
	sendText(chatID, text, &keyboard, deps)
}

func showTopup(chatID, userID int64, loc i18n.Localizer, deps BotDeps) {
	balance, err := deps.Ledger.GetBalance(context.Background(), userID)
	if err != nil {
		sendGenericError(chatID, userID, "GetBalance", err, loc, deps)
		return
	}
	username := deps.Config.SupportUsername
	if username == "" {
		username = "-"
	}
	keyboard := topupKeyboard(loc, deps.Config.SupportUsername)
	sendText(chatID, loc.T("topup_text",
		"balance", balance,
		"username", escape(username),
		"user_id", fmt.Sprint(userID),
	), &keyboard, deps)
}
