package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const DefaultTelegramAPIURL = "https://api.telegram.org/bot%s/%s"

type Config struct {
	BotToken        string           `toml:"botToken"`
	TelegramAPIURL  string           `toml:"telegramAPIURL"`
	DBPath          string           `toml:"dbPath"`
	CacheDir        string           `toml:"cacheDir"`
	DefaultLanguage string           `toml:"defaultLanguage"`
	SupportUsername string           `toml:"supportUsername"`
	ExamplePhotos   []string         `toml:"examplePhotos"`
	LogConfig       LogConfig        `toml:"logConfig"`
	Gemini          GeminiConfig     `toml:"gemini"`
	Admins          AdminConfig      `toml:"admins"`
	Balance         BalanceConfig    `toml:"balance"`
	Wizard          WizardConfig     `toml:"wizard"`
	Generation      GenerationConfig `toml:"generation"`
	Metrics         MetricsConfig    `toml:"metrics"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type GeminiConfig struct {
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	APIVersion     string `toml:"apiVersion"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	AspectRatio    string `toml:"aspectRatio"`
}

type AdminConfig struct {
	AdminUserIDs []int64 `toml:"adminUserIDs"`
}

type BalanceConfig struct {
	CostPerGeneration   int64 `toml:"costPerGeneration"`
	FirstGenerationFree bool  `toml:"firstGenerationFree"`
	AdminsExempt        bool  `toml:"adminsExempt"`
}

type WizardConfig struct {
	MinHeight           int `toml:"minHeight"`
	MaxHeight           int `toml:"maxHeight"`
	MinLength           int `toml:"minLength"`
	MaxLength           int `toml:"maxLength"`
	MaxRefinementLength int `toml:"maxRefinementLength"`
	SessionIdleMinutes  int `toml:"sessionIdleMinutes"`
}

type GenerationConfig struct {
	ProgressIntervalSeconds int   `toml:"progressIntervalSeconds"`
	ExpectedSeconds         int   `toml:"expectedSeconds"`
	MaxConcurrent           int64 `toml:"maxConcurrent"`
	JPEGQuality             int   `toml:"jpegQuality"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// EnvOverrides are secrets that may be kept out of the config file.
type EnvOverrides struct {
	BotToken     string  `envconfig:"BOT_TOKEN"`
	GeminiAPIKey string  `envconfig:"GEMINI_API_KEY"`
	AdminIDs     []int64 `envconfig:"ADMIN_IDS"`
	DBPath       string  `envconfig:"DB_PATH"`
}

var supportedAspectRatios = map[string]bool{
	"1:1": true, "2:3": true, "3:2": true, "3:4": true, "4:3": true,
	"4:5": true, "5:4": true, "9:16": true, "16:9": true, "21:9": true,
}

var supportedLanguages = map[string]bool{"ru": true, "en": true}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides loads envFile (if present) into the process environment
// and lets non-empty BOT_TOKEN, GEMINI_API_KEY, ADMIN_IDS and DB_PATH win
// over the file values.
func ApplyEnvOverrides(cfg *Config, envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", envFile, err)
		}
	}

	var env EnvOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("error processing env vars: %w", err)
	}

	if env.BotToken != "" {
		cfg.BotToken = env.BotToken
	}
	if env.GeminiAPIKey != "" {
		cfg.Gemini.APIKey = env.GeminiAPIKey
	}
	if len(env.AdminIDs) > 0 {
		cfg.Admins.AdminUserIDs = env.AdminIDs
	}
	if env.DBPath != "" {
		cfg.DBPath = env.DBPath
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.TelegramAPIURL == "" {
		cfg.TelegramAPIURL = DefaultTelegramAPIURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/bot.db"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "data/cache"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "ru"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.LogConfig.Format == "" {
		cfg.LogConfig.Format = "console"
	}
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 120
	}
	if cfg.Gemini.AspectRatio == "" {
		cfg.Gemini.AspectRatio = "3:4"
	}
	if cfg.Balance.CostPerGeneration == 0 {
		cfg.Balance.CostPerGeneration = 1
	}
	if cfg.Wizard.MinHeight == 0 {
		cfg.Wizard.MinHeight = 50
	}
	if cfg.Wizard.MaxHeight == 0 {
		cfg.Wizard.MaxHeight = 220
	}
	if cfg.Wizard.MinLength == 0 {
		cfg.Wizard.MinLength = 10
	}
	if cfg.Wizard.MaxLength == 0 {
		cfg.Wizard.MaxLength = 250
	}
	if cfg.Wizard.MaxRefinementLength == 0 {
		cfg.Wizard.MaxRefinementLength = 500
	}
	if cfg.Wizard.SessionIdleMinutes == 0 {
		cfg.Wizard.SessionIdleMinutes = 60
	}
	if cfg.Generation.ProgressIntervalSeconds == 0 {
		cfg.Generation.ProgressIntervalSeconds = 3
	}
	if cfg.Generation.ExpectedSeconds == 0 {
		cfg.Generation.ExpectedSeconds = 25
	}
	if cfg.Generation.MaxConcurrent == 0 {
		cfg.Generation.MaxConcurrent = 4
	}
	if cfg.Generation.JPEGQuality == 0 {
		cfg.Generation.JPEGQuality = 92
	}
}

func ValidateURL(urlString string) bool {
	if urlString == "" {
		return false
	}
	u, err := url.Parse(urlString)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// MaskedPrint shows only the last 4 characters.
func MaskedPrint(str string) string {
	if len(str) <= 4 {
		return strings.Repeat("*", len(str))
	}
	return strings.Repeat("*", len(str)-4) + str[len(str)-4:]
}

func PrintConfig(cfg *Config) {
	fmt.Println()
	fmt.Println("--------------------------------")
	fmt.Println("Config:")
	fmt.Printf("\tBotToken: %s\n", MaskedPrint(cfg.BotToken))
	fmt.Printf("\tTelegramAPIURL: %s\n", cfg.TelegramAPIURL)
	fmt.Printf("\tDBPath: %s\n", cfg.DBPath)
	fmt.Printf("\tCacheDir: %s\n", cfg.CacheDir)
	fmt.Printf("\tDefaultLanguage: %s\n", cfg.DefaultLanguage)
	fmt.Printf("\tSupportUsername: %s\n", cfg.SupportUsername)
	fmt.Printf("\tExamplePhotos: %v\n", cfg.ExamplePhotos)
	fmt.Printf("\tLogConfig: %v\n", cfg.LogConfig)
	fmt.Printf("\tGemini: {APIKey: %s BaseURL: %s APIVersion: %s Model: %s TimeoutSeconds: %d AspectRatio: %s}\n",
		MaskedPrint(cfg.Gemini.APIKey), cfg.Gemini.BaseURL, cfg.Gemini.APIVersion, cfg.Gemini.Model,
		cfg.Gemini.TimeoutSeconds, cfg.Gemini.AspectRatio)
	fmt.Printf("\tAdmins: %v\n", cfg.Admins)
	fmt.Printf("\tBalance: %+v\n", cfg.Balance)
	fmt.Printf("\tWizard: %+v\n", cfg.Wizard)
	fmt.Printf("\tGeneration: %+v\n", cfg.Generation)
	fmt.Printf("\tMetrics: %v\n", cfg.Metrics)
	fmt.Println("--------------------------------")
	fmt.Println()
}

// ValidateConfig fills defaults for unset fields and rejects invalid ones.
func ValidateConfig(cfg *Config) error {
	applyDefaults(cfg)

	if cfg.BotToken == "" {
		return fmt.Errorf("botToken is required")
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.apiKey is required")
	}
	if !ValidateURL(strings.ReplaceAll(cfg.TelegramAPIURL, "%s", cfg.BotToken)) {
		return fmt.Errorf("telegramAPIURL must be a valid URL")
	}
	if cfg.Gemini.BaseURL != "" && !ValidateURL(cfg.Gemini.BaseURL) {
		return fmt.Errorf("gemini.baseURL must be a valid URL")
	}
	if cfg.Gemini.TimeoutSeconds < 0 {
		return fmt.Errorf("gemini.timeoutSeconds must be positive")
	}
	if !supportedAspectRatios[cfg.Gemini.AspectRatio] {
		return fmt.Errorf("gemini.aspectRatio %q is not supported", cfg.Gemini.AspectRatio)
	}
	if len(cfg.Admins.AdminUserIDs) == 0 {
		return fmt.Errorf("adminUserIDs is required")
	}
	if !supportedLanguages[cfg.DefaultLanguage] {
		return fmt.Errorf("defaultLanguage must be one of: ru, en")
	}
	if cfg.Balance.CostPerGeneration <= 0 {
		return fmt.Errorf("costPerGeneration must be greater than 0")
	}
	switch strings.ToLower(cfg.LogConfig.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logConfig.level must be one of: debug, info, warn, error")
	}
	if cfg.LogConfig.Format != "console" && cfg.LogConfig.Format != "json" {
		return fmt.Errorf("logConfig.format must be one of: console, json")
	}
	if cfg.Wizard.MinHeight <= 0 || cfg.Wizard.MinHeight >= cfg.Wizard.MaxHeight {
		return fmt.Errorf("wizard height bounds must satisfy 0 < minHeight < maxHeight")
	}
	if cfg.Wizard.MinLength <= 0 || cfg.Wizard.MinLength >= cfg.Wizard.MaxLength {
		return fmt.Errorf("wizard length bounds must satisfy 0 < minLength < maxLength")
	}
	if cfg.Wizard.MaxRefinementLength < 0 || cfg.Wizard.SessionIdleMinutes < 0 {
		return fmt.Errorf("wizard limits must not be negative")
	}
	if cfg.Generation.JPEGQuality < 1 || cfg.Generation.JPEGQuality > 100 {
		return fmt.Errorf("generation.jpegQuality must be between 1 and 100")
	}
	if cfg.Generation.ProgressIntervalSeconds < 0 || cfg.Generation.ExpectedSeconds < 0 || cfg.Generation.MaxConcurrent < 0 {
		return fmt.Errorf("generation settings must not be negative")
	}
	if len(cfg.ExamplePhotos) > 10 {
		return fmt.Errorf("examplePhotos supports at most 10 images")
	}
	return nil
}
