package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
)

// Callback data. Option buttons carry "opt:<group>:<key>".
const (
	cbAcceptTerms = "accept_terms"
	cbSupport     = "support"
	cbCreatePhoto = "create_photo"
	cbTopup       = "topup_balance"
	cbBackToMain  = "back_to_main"
	cbSkipLength  = "len_skip"
	cbGenerate    = "confirm_generate"
	cbRestart     = "confirm_edit"
	cbRefine      = "confirm_refine"

	optionPrefix = "opt:"
)

func optionData(g catalog.Group, key string) string {
	return optionPrefix + string(g) + ":" + key
}

// parseOptionData splits "opt:<group>:<key>". The key itself may not
// contain ':'.
func parseOptionData(data string) (catalog.Group, string, bool) {
	if !strings.HasPrefix(data, optionPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(data, optionPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return catalog.Group(parts[0]), parts[1], true
}

// --- Menu Keyboards ---

func termsKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_accept_terms"), cbAcceptTerms)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_support"), cbSupport)),
	)
}

func mainMenuKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_create_photo"), cbCreatePhoto)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_topup"), cbTopup)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_support"), cbSupport)),
	)
}

func backKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_back"), cbBackToMain)),
	)
}

// topupKeyboard links to the support account when one is configured.
func topupKeyboard(loc i18n.Localizer, supportUsername string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if name := strings.TrimPrefix(supportUsername, "@"); name != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(loc.T("btn_contact_manager"), "https://t.me/"+name),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_back"), cbBackToMain)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func insufficientBalanceKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_topup"), cbTopup)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_back"), cbBackToMain)),
	)
}

// --- Wizard Keyboards ---

// optionsKeyboard lays options out perRow to a row. The category keyboard
// gets a trailing back button.
func optionsKeyboard(g catalog.Group, opts []catalog.Option, perRow int, loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range opts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label(loc), optionData(g, opt.Key)))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if g == catalog.GroupCategory {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_back"), cbBackToMain)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func skipLengthKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_skip"), cbSkipLength)),
	)
}

func confirmationKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_generate"), cbGenerate)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_refine"), cbRefine)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_restart"), cbRestart)),
	)
}

func afterGenerationKeyboard(loc i18n.Localizer) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_new_photo"), cbCreatePhoto)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(loc.T("btn_main_menu"), cbBackToMain)),
	)
}
