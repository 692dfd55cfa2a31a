package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/generation"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

const progressCells = 10

// runGeneration takes the confirmed run out of the session store and hands
// it to the generator. The run's photo now belongs to the generator.
func runGeneration(chatID, userID int64, loc i18n.Localizer, deps BotDeps) {
	pad, ok := deps.Sessions.Detach(userID)
	if !ok {
		sendText(chatID, loc.T("session_expired"), nil, deps)
		return
	}
	if pad.Step != wizard.StepConfirmation || pad.Prompt == "" {
		deps.Logger.Warn("Generation requested outside confirmation", zap.Int64("user_id", userID), zap.String("step", string(pad.Step)))
		wizard.RemovePhoto(pad.PhotoPath, deps.Logger)
		sendText(chatID, loc.T("session_expired"), nil, deps)
		return
	}

	// Without a status message the run still proceeds, just without progress.
	status, _ := sendPlain(chatID, loc.T("generation_started"), deps)
	sink := &statusSink{deps: deps, chatID: chatID, messageID: status.MessageID, loc: loc, last: -1}

	result, err := deps.Generator.Generate(context.Background(), generation.Request{
		UserID:    userID,
		Exempt:    deps.exempt(userID),
		PhotoPath: pad.PhotoPath,
		Prompt:    pad.Prompt,
		Category:  pad.Category,
	}, sink)
	deleteMessage(chatID, status.MessageID, deps)

	if err != nil {
		reportGenerationError(chatID, userID, err, loc, deps)
		return
	}
	deps.Logger.Info("Generation completed",
		zap.Int64("user_id", userID),
		zap.Int64("generation_id", result.GenerationID),
		zap.Bool("charged", result.Charged),
		zap.Duration("elapsed", result.Elapsed),
	)
}

func reportGenerationError(chatID, userID int64, err error, loc i18n.Localizer, deps BotDeps) {
	var failure *generation.Failure
	switch {
	case errors.Is(err, generation.ErrInsufficientBalance):
		keyboard := insufficientBalanceKeyboard(loc)
		sendText(chatID, loc.T("insufficient_balance"), &keyboard, deps)
	case errors.Is(err, generation.ErrAlreadyRunning):
		sendText(chatID, loc.T("generation_already_running"), nil, deps)
	case errors.Is(err, generation.ErrPhotoUnavailable):
		keyboard := mainMenuKeyboard(loc)
		sendText(chatID, loc.T("photo_unavailable"), &keyboard, deps)
	case errors.As(err, &failure):
		keyboard := afterGenerationKeyboard(loc)
		sendText(chatID, failureText(failure, loc), &keyboard, deps)
	default:
		sendGenericError(chatID, userID, "Generate", err, loc, deps)
	}
}

// failureText renders the class message, the bounded diagnostic and the
// refund note.
func failureText(f *generation.Failure, loc i18n.Localizer) string {
	parts := []string{loc.T("failure_" + f.Class)}
	if f.Detail != "" {
		parts = append(parts, loc.T("failure_detail", "detail", escape(f.Detail)))
	}
	if f.Refunded {
		parts = append(parts, loc.T("failure_refunded"))
	}
	parts = append(parts, loc.T("failure_hint"))
	return strings.Join(parts, "\n\n")
}

func progressBar(percent int) string {
	filled := percent * progressCells / 100
	if filled < 0 {
		filled = 0
	}
	if filled > progressCells {
		filled = progressCells
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", progressCells-filled)
}

// statusSink edits the waiting message while the call is outstanding and
// delivers the finished image as a new photo message.
type statusSink struct {
	deps      BotDeps
	chatID    int64
	messageID int
	loc       i18n.Localizer
	last      int
}

func (s *statusSink) Progress(p generation.Progress) {
	if s.messageID == 0 || p.Percent == s.last {
		return
	}
	s.last = p.Percent
	text := s.loc.T("generation_progress",
		"stage", s.loc.T("progress_"+p.Stage),
		"bar", progressBar(p.Percent),
		"percent", p.Percent,
	)
	if _, err := s.deps.Bot.Send(tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)); err != nil {
		s.deps.Logger.Debug("Failed to update progress message", zap.Int64("chat_id", s.chatID), zap.Error(err))
	}
}

func (s *statusSink) Deliver(ctx context.Context, jpeg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: "generated_fashion.jpg", Bytes: jpeg})
	photo.Caption = s.loc.T("generation_done")
	photo.ReplyMarkup = afterGenerationKeyboard(s.loc)
	_, err := s.deps.Bot.Send(photo)
	return err
}
