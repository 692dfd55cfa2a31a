package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
)

var errAdminUsage = errors.New("expected <user_id> <amount>")

// parseAdminArgs reads "<user_id> <amount>".
func parseAdminArgs(args string) (int64, int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, errAdminUsage
	}
	target, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("user id: %w", err)
	}
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("amount: %w", err)
	}
	return target, amount, nil
}

// requireAdmin rejects non-administrators before any argument is parsed.
func requireAdmin(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) bool {
	if deps.Authorizer.IsAdmin(message.From.ID) {
		return true
	}
	deps.Logger.Warn("Non-admin invoked admin command",
		zap.Int64("user_id", message.From.ID),
		zap.String("command", message.Command()))
	sendText(message.Chat.ID, loc.T("admin_only"), nil, deps)
	return false
}

func HandleAddBalanceCommand(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) {
	if !requireAdmin(message, loc, deps) {
		return
	}
	chatID := message.Chat.ID

	target, amount, err := parseAdminArgs(message.CommandArguments())
	if errors.Is(err, errAdminUsage) {
		sendText(chatID, loc.T("admin_usage_add_balance"), nil, deps)
		return
	}
	if err != nil {
		sendText(chatID, loc.T("admin_invalid_args"), nil, deps)
		return
	}
	if amount <= 0 {
		sendText(chatID, loc.T("admin_amount_positive"), nil, deps)
		return
	}

	balance, err := deps.Ledger.AddBalance(context.Background(), target, amount)
	if err != nil {
		deps.Logger.Error("Admin balance grant failed", zap.Int64("target_user_id", target), zap.Error(err))
		sendText(chatID, loc.T("admin_error"), nil, deps)
		return
	}
	deps.Logger.Info("Admin granted balance",
		zap.Int64("admin_id", message.From.ID),
		zap.Int64("target_user_id", target),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	sendText(chatID, loc.T("admin_balance_added",
		"user_id", fmt.Sprint(target),
		"amount", amount,
		"balance", balance,
	), nil, deps)
}

func HandleSetBalanceCommand(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) {
	if !requireAdmin(message, loc, deps) {
		return
	}
	chatID := message.Chat.ID

	target, amount, err := parseAdminArgs(message.CommandArguments())
	if errors.Is(err, errAdminUsage) {
		sendText(chatID, loc.T("admin_usage_set_balance"), nil, deps)
		return
	}
	if err != nil {
		sendText(chatID, loc.T("admin_invalid_args"), nil, deps)
		return
	}
	if amount < 0 {
		sendText(chatID, loc.T("admin_amount_negative"), nil, deps)
		return
	}

	if err := deps.Ledger.SetBalance(context.Background(), target, amount); err != nil {
		deps.Logger.Error("Admin balance set failed", zap.Int64("target_user_id", target), zap.Error(err))
		sendText(chatID, loc.T("admin_error"), nil, deps)
		return
	}
	deps.Logger.Info("Admin set balance",
		zap.Int64("admin_id", message.From.ID),
		zap.Int64("target_user_id", target),
		zap.Int64("balance", amount))
	sendText(chatID, loc.T("admin_balance_set", "user_id", fmt.Sprint(target), "balance", amount), nil, deps)
}

// recentGenerationsShown bounds the per-user history in /stats <user_id>.
const recentGenerationsShown = 5

// HandleStatsCommand shows ledger totals, or one user's balance and recent
// history when a user id is given.
func HandleStatsCommand(message *tgbotapi.Message, loc i18n.Localizer, deps BotDeps) {
	if !requireAdmin(message, loc, deps) {
		return
	}
	chatID := message.Chat.ID

	// --- Per-user history ---
	if args := strings.Fields(message.CommandArguments()); len(args) > 0 {
		if len(args) != 1 {
			sendText(chatID, loc.T("admin_usage_stats"), nil, deps)
			return
		}
		target, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			sendText(chatID, loc.T("admin_invalid_args"), nil, deps)
			return
		}
		text, err := userStatsText(context.Background(), target, loc, deps)
		if err != nil {
			deps.Logger.Error("Failed to collect user stats", zap.Int64("target_user_id", target), zap.Error(err))
			sendText(chatID, loc.T("admin_error"), nil, deps)
			return
		}
		sendText(chatID, text, nil, deps)
		return
	}

	// --- Totals ---
	stats, err := deps.Ledger.Stats(context.Background())
	if err != nil {
		deps.Logger.Error("Failed to collect stats", zap.Error(err))
		sendText(chatID, loc.T("admin_error"), nil, deps)
		return
	}
	sendText(chatID, loc.T("admin_stats",
		"users", stats.Users,
		"generations", stats.Generations,
		"balance", stats.BalanceSum,
	), nil, deps)
}

func userStatsText(ctx context.Context, target int64, loc i18n.Localizer, deps BotDeps) (string, error) {
	balance, err := deps.Ledger.GetBalance(ctx, target)
	if err != nil {
		return "", err
	}
	count, err := deps.Ledger.GenerationCount(ctx, target)
	if err != nil {
		return "", err
	}
	recent, err := deps.Ledger.Generations(ctx, target, recentGenerationsShown)
	if err != nil {
		return "", err
	}

	lines := []string{loc.T("admin_user_stats",
		"user_id", fmt.Sprint(target),
		"balance", balance,
		"generations", count,
	)}
	if len(recent) > 0 {
		lines = append(lines, "", loc.T("admin_user_recent"))
		for _, g := range recent {
			category := escape(g.Category)
			if opt, ok := catalog.Lookup(catalog.GroupCategory, g.Category); ok {
				category = opt.Label(loc)
			}
			lines = append(lines, loc.T("admin_user_generation",
				"id", fmt.Sprint(g.ID),
				"category", category,
				"date", g.CreatedAt.Format("2006-01-02 15:04"),
			))
		}
	}
	return strings.Join(lines, "\n"), nil
}
