package bot

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/metrics"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/prompt"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

// maxExamplePhotos is Telegram's media group limit.
const maxExamplePhotos = 10

// startWizard opens a fresh run after the terms and balance gates.
func startWizard(chatID int64, user *tgbotapi.User, loc i18n.Localizer, deps BotDeps) {
	ctx := context.Background()
	userID := user.ID

	// A restart drops the previous run even when a gate below stops the new one.
	deps.Sessions.Discard(userID)

	accepted, err := deps.Ledger.HasAcceptedTerms(ctx, userID)
	if err != nil {
		sendGenericError(chatID, userID, "HasAcceptedTerms", err, loc, deps)
		return
	}
	if !accepted {
		showWelcome(chatID, loc, deps)
		return
	}

	if !deps.exempt(userID) {
		cost := deps.Generator.Cost()
		if deps.Config.Balance.FirstGenerationFree {
			granted, err := deps.Ledger.GrantFirstCredit(ctx, userID, cost)
			if err != nil {
				sendGenericError(chatID, userID, "GrantFirstCredit", err, loc, deps)
				return
			}
			if granted {
				deps.Logger.Info("First generation credit granted", zap.Int64("user_id", userID), zap.Int64("amount", cost))
				sendText(chatID, loc.T("first_credit_granted"), nil, deps)
			}
		}

		balance, err := deps.Ledger.GetBalance(ctx, userID)
		if err != nil {
			sendGenericError(chatID, userID, "GetBalance", err, loc, deps)
			return
		}
		if balance < cost {
			keyboard := insufficientBalanceKeyboard(loc)
			sendText(chatID, loc.T("insufficient_balance"), &keyboard, deps)
			return
		}
	}

	pad := deps.Sessions.Begin(userID, chatID)
	deps.Logger.Debug("Wizard started", zap.Int64("user_id", userID))
	promptStep(pad, loc, deps)
}

// applyInput feeds one input to the user's run under the store lock.
// Rejections are counted here; callers decide how to show them.
func applyInput(userID int64, in wizard.Input, deps BotDeps) (wizard.Scratchpad, wizard.Transition, error) {
	var tr wizard.Transition
	pad, err := deps.Sessions.Update(userID, func(p *wizard.Scratchpad) {
		tr = deps.Machine.Apply(p, in)
	})
	if err != nil {
		return pad, tr, err
	}
	if !tr.Accepted {
		metrics.IncWizardRejection(string(tr.From))
		deps.Logger.Debug("Wizard input rejected",
			zap.Int64("user_id", userID),
			zap.String("step", string(tr.From)),
			zap.String("reason", string(tr.Reason)),
		)
	}
	return pad, tr, nil
}

func rejectInput(pad wizard.Scratchpad, tr wizard.Transition, loc i18n.Localizer, deps BotDeps) {
	sendText(pad.ChatID, rejectionText(tr, deps.Machine.Policy(), loc), nil, deps)
}

func rejectionText(tr wizard.Transition, policy wizard.Policy, loc i18n.Localizer) string {
	switch tr.From {
	case wizard.StepPhoto:
		return loc.T("reject_photo_expected")
	case wizard.StepHeight:
		if tr.Reason == wizard.RejectOutOfRange {
			return loc.T("reject_height_out_of_range", "min", policy.MinHeight, "max", policy.MaxHeight)
		}
		return loc.T("reject_height_not_a_number")
	case wizard.StepLength:
		if tr.Reason == wizard.RejectOutOfRange {
			return loc.T("reject_length_out_of_range", "min", policy.MinLength, "max", policy.MaxLength)
		}
		return loc.T("reject_length_not_a_number")
	}

	switch tr.Reason {
	case wizard.RejectUnavailable:
		return loc.T("reject_unavailable_option")
	case wizard.RejectEmptyText:
		return loc.T("reject_empty_text")
	default:
		return loc.T("reject_wrong_input")
	}
}

// promptStep asks the question belonging to pad.Step.
func promptStep(pad wizard.Scratchpad, loc i18n.Localizer, deps BotDeps) {
	chatID := pad.ChatID
	policy := deps.Machine.Policy()

	choose := func(g catalog.Group, opts []catalog.Option, perRow int, key string) {
		keyboard := optionsKeyboard(g, opts, perRow, loc)
		sendText(chatID, loc.T(key), &keyboard, deps)
	}

	switch pad.Step {
	case wizard.StepCategory:
		choose(catalog.GroupCategory, catalog.Options(catalog.GroupCategory), 1, "choose_category")
	case wizard.StepPhoto:
		if catalog.IsModelCategory(pad.Category) {
			sendExamples(chatID, deps)
		}
		sendText(chatID, photoInstructions(pad.Category, loc, deps), nil, deps)
	case wizard.StepHeight:
		sendText(chatID, loc.T("ask_height", "min", policy.MinHeight, "max", policy.MaxHeight), nil, deps)
	case wizard.StepLength:
		keyboard := skipLengthKeyboard(loc)
		sendText(chatID, loc.T("ask_length", "min", policy.MinLength, "max", policy.MaxLength), &keyboard, deps)
	case wizard.StepLocation:
		choose(catalog.GroupLocation, catalog.Options(catalog.GroupLocation), 1, "ask_location")
	case wizard.StepAge:
		choose(catalog.GroupAge, catalog.AgesFor(pad.Category), 2, "ask_age")
	case wizard.StepSize:
		choose(catalog.GroupSize, catalog.Options(catalog.GroupSize), 2, "ask_size")
	case wizard.StepStyle:
		choose(catalog.GroupStyle, catalog.StylesFor(pad.Location), 2, "ask_style")
	case wizard.StepPose:
		choose(catalog.GroupPose, catalog.Options(catalog.GroupPose), 2, "ask_pose")
	case wizard.StepView:
		choose(catalog.GroupView, catalog.Options(catalog.GroupView), 2, "ask_view")
	case wizard.StepConfirmation:
		showSummary(pad, loc, deps)
	case wizard.StepRefinement:
		sendText(chatID, loc.T("ask_refinement"), nil, deps)
	}
}

func promptOptions(userID int64, deps BotDeps) prompt.Options {
	opts := prompt.Options{AspectRatio: deps.Config.Gemini.AspectRatio}
	if !deps.exempt(userID) {
		opts.Cost = deps.Generator.Cost()
	}
	return opts
}

// showSummary stores the assembled prompt on the run and asks for
// confirmation.
func showSummary(pad wizard.Scratchpad, loc i18n.Localizer, deps BotDeps) {
	opts := promptOptions(pad.UserID, deps)
	assembly := prompt.Assemble(pad, loc, opts)
	if _, err := deps.Sessions.Update(pad.UserID, func(p *wizard.Scratchpad) {
		p.Summary = assembly.Summary
		p.Prompt = assembly.Prompt
	}); err != nil {
		sendText(pad.ChatID, loc.T("session_expired"), nil, deps)
		return
	}

	display := pad
	display.Refinement = escape(pad.Refinement)
	keyboard := confirmationKeyboard(loc)
	sendText(pad.ChatID, prompt.Summary(display, loc, opts), &keyboard, deps)
}

func photoInstructions(category string, loc i18n.Localizer, deps BotDeps) string {
	key := "photo_instructions_model"
	switch category {
	case catalog.CategoryDisplay:
		key = "photo_instructions_display"
	case catalog.CategoryWhiteBG:
		key = "photo_instructions_white_bg"
	}
	text := loc.T(key)
	if deps.Config.SupportUsername != "" {
		text += "\n\n" + loc.T("photo_support_hint", "username", escape(deps.Config.SupportUsername))
	}
	return text
}

// sendExamples sends the configured example shots. Missing files are
// skipped; a single photo cannot form a media group.
func sendExamples(chatID int64, deps BotDeps) {
	var paths []string
	for _, path := range deps.Config.ExamplePhotos {
		if _, err := os.Stat(path); err != nil {
			deps.Logger.Warn("Example photo unavailable", zap.String("path", path), zap.Error(err))
			continue
		}
		paths = append(paths, path)
		if len(paths) == maxExamplePhotos {
			break
		}
	}

	switch len(paths) {
	case 0:
		return
	case 1:
		if _, err := deps.Bot.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(paths[0]))); err != nil {
			deps.Logger.Warn("Failed to send example photo", zap.Error(err))
		}
	default:
		media := make([]interface{}, 0, len(paths))
		for _, path := range paths {
			media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(path)))
		}
		if _, err := deps.Bot.Request(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
			deps.Logger.Warn("Failed to send example media group", zap.Int("count", len(media)), zap.Error(err))
		}
	}
}
