package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed all:locales
var localeFS embed.FS

// Manager owns the message bundle and one localizer per loaded language.
type Manager struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	Logger          *zap.Logger
	localizers      map[string]*i18n.Localizer
	matcher         language.Matcher
	codes           []string
}

func NewManager(defaultLang string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultLanguageTag, err := language.Parse(defaultLang)
	if err != nil {
		logger.Error("Failed to parse default language tag", zap.String("tag", defaultLang), zap.Error(err))
		return nil, fmt.Errorf("invalid default language tag '%s': %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(defaultLanguageTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	m := &Manager{
		bundle:          bundle,
		defaultLanguage: defaultLanguageTag,
		Logger:          logger.Named("i18n"),
		localizers:      make(map[string]*i18n.Localizer),
	}

	if err := m.LoadTranslations(); err != nil {
		return nil, err
	}

	base, _ := defaultLanguageTag.Base()
	if _, ok := m.localizers[base.String()]; !ok {
		return nil, fmt.Errorf("no translations for default language %q", defaultLang)
	}

	// The default goes first so the matcher falls back to it.
	tags := []language.Tag{defaultLanguageTag}
	for _, code := range m.codes {
		if code != base.String() {
			tags = append(tags, language.MustParse(code))
		}
	}
	m.matcher = language.NewMatcher(tags)

	m.Logger.Info("i18n Manager initialized",
		zap.String("default_language", defaultLang),
		zap.Strings("languages", m.codes),
	)
	return m, nil
}

// LoadTranslations loads every locales/*.toml file. The language code is the
// last dot-separated part of the file name, e.g. active.ru.toml.
func (m *Manager) LoadTranslations() error {
	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return fmt.Errorf("failed to read embedded locales directory: %w", err)
	}

	for _, file := range files {
		fileName := file.Name()
		if file.IsDir() || filepath.Ext(fileName) != ".toml" {
			continue
		}

		parts := strings.Split(strings.TrimSuffix(fileName, ".toml"), ".")
		langCode := parts[len(parts)-1]
		if _, err := language.Parse(langCode); err != nil {
			m.Logger.Warn("Skipping locale file with invalid language code", zap.String("file", fileName), zap.Error(err))
			continue
		}

		if _, err := m.bundle.LoadMessageFileFS(localeFS, "locales/"+fileName); err != nil {
			return fmt.Errorf("load %s: %w", fileName, err)
		}
		m.localizers[langCode] = i18n.NewLocalizer(m.bundle, langCode)
		m.codes = append(m.codes, langCode)
		m.Logger.Debug("Loaded translation file", zap.String("file", fileName))
	}

	if len(m.codes) == 0 {
		return errors.New("no valid translation files loaded")
	}
	sort.Strings(m.codes)
	return nil
}

// Resolve maps a client language code such as "en-US" onto a loaded language.
func (m *Manager) Resolve(code string) string {
	base, _ := m.defaultLanguage.Base()
	if code == "" {
		return base.String()
	}
	tag, err := language.Parse(code)
	if err != nil {
		return base.String()
	}
	_, idx, confidence := m.matcher.Match(tag)
	if confidence == language.No {
		return base.String()
	}
	if idx == 0 {
		return base.String()
	}
	return m.others()[idx-1]
}

func (m *Manager) others() []string {
	base, _ := m.defaultLanguage.Base()
	out := make([]string, 0, len(m.codes))
	for _, code := range m.codes {
		if code != base.String() {
			out = append(out, code)
		}
	}
	return out
}

// T translates key. args may hold string/value pairs (template data), one int
// (plural count) or a prepared map[string]interface{}. Missing messages
// render as the key itself.
func (m *Manager) T(lang *string, key string, args ...interface{}) string {
	base, _ := m.defaultLanguage.Base()
	langCode := base.String()
	if lang != nil && *lang != "" {
		langCode = *lang
	}

	localizer, ok := m.localizers[langCode]
	if !ok {
		localizer = m.localizers[base.String()]
	}

	localizeConfig := &i18n.LocalizeConfig{MessageID: key}
	templateData := make(map[string]interface{})
	var pluralCount *int

	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case int:
			if pluralCount == nil {
				count := v
				pluralCount = &count
			}
		case string:
			if i+1 < len(args) {
				templateData[v] = args[i+1]
				i++
			}
		case map[string]interface{}:
			for k, val := range v {
				templateData[k] = val
			}
		default:
			m.Logger.Warn("Unsupported argument type in T", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", v)))
		}
	}

	if len(templateData) > 0 {
		localizeConfig.TemplateData = templateData
	}
	if pluralCount != nil {
		localizeConfig.PluralCount = pluralCount
	}

	localized, err := localizer.Localize(localizeConfig)
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			m.Logger.Error("Failed to localize message",
				zap.String("key", key),
				zap.String("lang", langCode),
				zap.Error(err),
			)
		}
		if localized != "" {
			return localized
		}
		return key
	}
	return localized
}

// Languages lists the loaded language codes.
func (m *Manager) Languages() []string {
	out := make([]string, len(m.codes))
	copy(out, m.codes)
	return out
}

func (m *Manager) GetDefaultLanguageTag() language.Tag {
	return m.defaultLanguage
}

// Localizer is a Manager bound to one language.
type Localizer struct {
	m    *Manager
	lang string
}

// For binds the manager to the language best matching code.
func (m *Manager) For(code string) Localizer {
	return Localizer{m: m, lang: m.Resolve(code)}
}

func (l Localizer) T(key string, args ...interface{}) string {
	return l.m.T(&l.lang, key, args...)
}

func (l Localizer) Lang() string { return l.lang }
