package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/auth"
	cfg "github.com/nerdneilsfield/telegram-fashion-bot/internal/config"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/generation"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	st "github.com/nerdneilsfield/telegram-fashion-bot/internal/storage"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Generator runs a confirmed wizard through the paid generation protocol.
type Generator interface {
	Generate(ctx context.Context, req generation.Request, sink generation.Sink) (*generation.Result, error)
	Cost() int64
}

// PhotoFetcher stores an uploaded Telegram file locally and returns its path.
type PhotoFetcher interface {
	Fetch(ctx context.Context, fileID string) (string, error)
}

// BotDeps holds the dependencies required by the bot handlers.
type BotDeps struct {
	Bot        Sender
	Config     *cfg.Config
	Ledger     *st.Ledger
	Sessions   *wizard.Store
	Machine    *wizard.Machine
	Generator  Generator
	Photos     PhotoFetcher
	Authorizer *auth.Authorizer
	I18n       *i18n.Manager
	Logger     *zap.Logger
	Version    string
	BuildDate  string
}

// exempt reports whether generations for userID are free of charge.
func (d BotDeps) exempt(userID int64) bool {
	return d.Config.Balance.AdminsExempt && d.Authorizer.IsAdmin(userID)
}
