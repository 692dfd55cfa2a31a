package logger

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	APIKey   = "api_key"
	Password = "password"
	Token    = "token"
)

// botTokenPattern matches the token segment of Telegram Bot API URLs,
// e.g. https://api.telegram.org/file/bot123456:AAE.../photos/file_1.jpg.
var botTokenPattern = regexp.MustCompile(`bot\d+:[A-Za-z0-9_-]+`)

// MaskSensitiveInfo keeps the first and last 4 characters of a secret.
func MaskSensitiveInfo(info string, infoType string) string {
	if info == "" {
		return ""
	}

	switch infoType {
	case APIKey, Password, Token:
		if len(info) <= 8 {
			return "****"
		}
		return info[:4] + strings.Repeat("*", len(info)-8) + info[len(info)-4:]
	default:
		return info
	}
}

// MaskBotTokens rewrites any bot token embedded in s.
func MaskBotTokens(s string) string {
	if !strings.Contains(s, "bot") {
		return s
	}
	return botTokenPattern.ReplaceAllString(s, "bot<redacted>")
}

func NewMaskedLogger(baseLogger *zap.Logger) *zap.Logger {
	return baseLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &maskedCore{Core: core}
	}))
}

type maskedCore struct {
	zapcore.Core
}

// With keeps masking on child loggers; fields bound here are masked once.
func (c *maskedCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskedCore{Core: c.Core.With(maskFields(fields))}
}

func (c *maskedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *maskedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = MaskBotTokens(entry.Message)
	return c.Core.Write(entry, maskFields(fields))
}

func maskFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, field := range fields {
		out[i] = maskField(field)
	}
	return out
}

func maskField(field zapcore.Field) zapcore.Field {
	switch field.Type {
	case zapcore.StringType:
		if isSensitiveField(field.Key) {
			return zap.String(field.Key, MaskSensitiveInfo(field.String, getFieldType(field.Key)))
		}
		if masked := MaskBotTokens(field.String); masked != field.String {
			return zap.String(field.Key, masked)
		}
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			msg := err.Error()
			if masked := MaskBotTokens(msg); masked != msg {
				return zap.String(field.Key, masked)
			}
		}
	}
	return field
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "api_key") ||
		strings.Contains(key, "apikey") ||
		strings.Contains(key, "password") ||
		strings.Contains(key, "token") ||
		strings.Contains(key, "secret") ||
		strings.Contains(key, "auth")
}

func getFieldType(key string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "api_key") || strings.Contains(key, "apikey") {
		return APIKey
	}
	if strings.Contains(key, "password") {
		return Password
	}
	if strings.Contains(key, "token") || strings.Contains(key, "secret") || strings.Contains(key, "auth") {
		return Token
	}
	return ""
}
