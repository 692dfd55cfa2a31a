package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/auth"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/config"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/generation"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/logger"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/metrics"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/storage"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
	"github.com/nerdneilsfield/telegram-fashion-bot/pkg/gemini"
)

const sweepInterval = time.Minute

// StartBot wires every component from cfg and polls for updates until
// SIGINT/SIGTERM. In-flight updates, including running generations, are
// waited for before returning.
func StartBot(cfg *config.Config, version string, buildDate string) error {
	logger, err := logger.InitLogger(cfg.LogConfig.Level, cfg.LogConfig.Format, cfg.LogConfig.File)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting Telegram Bot...", zap.String("version", version), zap.String("buildDate", buildDate))

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, cfg.TelegramAPIURL)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on account", zap.String("username", bot.Self.UserName))

	timeout := time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second
	geminiClient, err := gemini.NewClient(gemini.Options{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		APIVersion:  cfg.Gemini.APIVersion,
		Model:       cfg.Gemini.Model,
		AspectRatio: cfg.Gemini.AspectRatio,
		Timeout:     timeout,
		Logger:      logger.Named("gemini"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	logger.Info("Generation model configured", zap.String("model", geminiClient.Model()), zap.String("aspect_ratio", cfg.Gemini.AspectRatio))

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize i18n manager: %w", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	ledger := storage.NewLedger(db, logger)

	orchestrator := generation.NewOrchestrator(ledger, geminiClient, generation.Options{
		Cost:             cfg.Balance.CostPerGeneration,
		Timeout:          timeout,
		ProgressInterval: time.Duration(cfg.Generation.ProgressIntervalSeconds) * time.Second,
		ExpectedDuration: time.Duration(cfg.Generation.ExpectedSeconds) * time.Second,
		MaxConcurrent:    cfg.Generation.MaxConcurrent,
		JPEGQuality:      cfg.Generation.JPEGQuality,
	}, logger)

	sessions := wizard.NewStore(logger)
	deps := BotDeps{
		Bot:      bot,
		Config:   cfg,
		Ledger:   ledger,
		Sessions: sessions,
		Machine: wizard.NewMachine(wizard.Policy{
			MinHeight:        cfg.Wizard.MinHeight,
			MaxHeight:        cfg.Wizard.MaxHeight,
			MinLength:        cfg.Wizard.MinLength,
			MaxLength:        cfg.Wizard.MaxLength,
			MaxRefinementLen: cfg.Wizard.MaxRefinementLength,
		}),
		Generator:  orchestrator,
		Photos:     NewPhotoCache(bot, cfg.CacheDir, gemini.NewHTTPClient(photoDownloadTimeout), logger),
		Authorizer: auth.NewAuthorizer(cfg.Admins.AdminUserIDs),
		I18n:       i18nManager,
		Logger:     logger,
		Version:    version,
		BuildDate:  buildDate,
	}

	SetBotCommands(bot, logger, i18nManager)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.Metrics.Listen, logger)
	})
	g.Go(func() error {
		sweepSessions(gctx, sessions, time.Duration(cfg.Wizard.SessionIdleMinutes)*time.Minute, logger)
		return nil
	})
	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)
		logger.Info("Bot started, listening for updates...")

		var inflight sync.WaitGroup
		defer inflight.Wait()
		for {
			select {
			case <-gctx.Done():
				bot.StopReceivingUpdates()
				logger.Info("Stopping, waiting for in-flight updates")
				return nil
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				inflight.Add(1)
				go func(upd tgbotapi.Update) {
					defer inflight.Done()
					HandleUpdate(upd, deps)
				}(update)
			}
		}
	})

	err = g.Wait()
	if n := sessions.Len(); n > 0 {
		logger.Info("Discarding unfinished wizard sessions", zap.Int("count", n))
	}
	sessions.DiscardAll()
	logger.Info("Bot stopped")
	return err
}

// sweepSessions drops wizard runs left idle longer than idle.
func sweepSessions(ctx context.Context, sessions *wizard.Store, idle time.Duration, logger *zap.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.DiscardIdle(idle); n > 0 {
				logger.Info("Discarded idle wizard sessions", zap.Int("count", n), zap.Int("active", sessions.Len()))
			}
		}
	}
}

var botCommands = []string{"start", "help", "balance", "cancel", "version", "add_balance", "set_balance", "stats"}

// SetBotCommands registers the command menu once per loaded language; the
// default language also becomes the fallback list.
func SetBotCommands(bot Sender, logger *zap.Logger, i18nManager *i18n.Manager) {
	build := func(loc i18n.Localizer) []tgbotapi.BotCommand {
		commands := make([]tgbotapi.BotCommand, 0, len(botCommands))
		for _, name := range botCommands {
			commands = append(commands, tgbotapi.BotCommand{Command: name, Description: loc.T("command_desc_" + name)})
		}
		return commands
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(build(i18nManager.For(""))...)); err != nil {
		logger.Error("Failed to set bot commands", zap.Error(err))
		return
	}
	for _, lang := range i18nManager.Languages() {
		scoped := tgbotapi.SetMyCommandsConfig{
			Commands:     build(i18nManager.For(lang)),
			LanguageCode: lang,
		}
		if _, err := bot.Request(scoped); err != nil {
			logger.Error("Failed to set bot commands", zap.String("language", lang), zap.Error(err))
		}
	}
	logger.Info("Successfully set bot commands")
}
