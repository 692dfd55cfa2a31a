package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/bot"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/config"
)

const defaultConfigPath = "./config.toml"

func newStartCmd(version string, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:          "start [config.toml]",
		Short:        "Start polling Telegram for updates",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := defaultConfigPath
			if len(args) == 1 {
				configFile = args[0]
			}
			return run(configFile, version, buildTime)
		},
	}
}

func run(configFile string, version string, buildTime string) error {
	// The configured logger does not exist until the config is loaded.
	tempLogger, _ := zap.NewProduction()
	defer tempLogger.Sync()

	tempLogger.Info("Loading config", zap.String("path", configFile))
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		tempLogger.Error("Failed to load config", zap.String("path", configFile), zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}

	if err := config.ApplyEnvOverrides(cfg, envFile); err != nil {
		tempLogger.Error("Failed to apply environment overrides", zap.Error(err))
		return err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		tempLogger.Error("Config validation failed", zap.Error(err))
		return fmt.Errorf("invalid config: %w", err)
	}

	if verbose {
		config.PrintConfig(cfg)
	}

	return bot.StartBot(cfg, version, buildTime)
}
