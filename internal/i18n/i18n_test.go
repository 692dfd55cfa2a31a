package i18n

import (
	"io/fs"
	"sort"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("ru", zap.NewNop())
	require.NoError(t, err)
	return m
}

func localeKeys(t *testing.T, name string) []string {
	t.Helper()
	raw, err := fs.ReadFile(localeFS, "locales/"+name)
	require.NoError(t, err)
	var messages map[string]string
	require.NoError(t, toml.Unmarshal(raw, &messages))
	keys := make([]string, 0, len(messages))
	for k := range messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestLocalesHaveSameKeys(t *testing.T) {
	assert.Equal(t, localeKeys(t, "active.ru.toml"), localeKeys(t, "active.en.toml"))
}

func TestNewManager(t *testing.T) {
	m := newManager(t)
	assert.Equal(t, []string{"en", "ru"}, m.Languages())
	assert.Equal(t, "ru", m.GetDefaultLanguageTag().String())

	_, err := NewManager("de", zap.NewNop())
	assert.Error(t, err)
	_, err = NewManager("not a tag!", zap.NewNop())
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	m := newManager(t)
	assert.Equal(t, "en", m.Resolve("en"))
	assert.Equal(t, "en", m.Resolve("en-US"))
	assert.Equal(t, "ru", m.Resolve("ru-RU"))
	assert.Equal(t, "ru", m.Resolve(""))
	assert.Equal(t, "ru", m.Resolve("???"))
}

func TestTranslate(t *testing.T) {
	m := newManager(t)
	en := m.For("en-GB")
	assert.Equal(t, "en", en.Lang())
	assert.Equal(t, "Street", en.T("location_street"))
	assert.Equal(t, "📏 Model height: 180 cm", en.T("summary_height", "value", 180))

	ru := m.For("")
	assert.Equal(t, "Улица", ru.T("location_street"))

	lang := "xx"
	assert.Equal(t, "Улица", m.T(&lang, "location_street"), "unknown language falls back to the default")
	assert.Equal(t, "no_such_message", en.T("no_such_message"))
}

func TestTranslateWithMap(t *testing.T) {
	m := newManager(t)
	got := m.For("en").T("ask_height", map[string]interface{}{"min": 50, "max": 220})
	assert.Equal(t, "📏 Enter the model height in cm (50–220):", got)
}
