package bot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/auth"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/config"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/generation"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/i18n"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/storage"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
	"github.com/nerdneilsfield/telegram-fashion-bot/pkg/gemini"
)

const (
	adminID int64 = 1001
	userID  int64 = 42
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	fileURL  string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

// texts lists the bodies of sent messages, ignoring edits and photos.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeSender) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeSender) callbackAnswers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

// fakePhotos writes a small PNG per fetch.
type fakePhotos struct {
	dir     string
	fetched []string
	err     error
}

func (p *fakePhotos) Fetch(_ context.Context, fileID string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.fetched = append(p.fetched, fileID)
	path := filepath.Join(p.dir, fmt.Sprintf("%s-%d.png", fileID, len(p.fetched)))
	if err := os.WriteFile(path, testPNG(), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

type fakeModel struct {
	outcome gemini.Outcome
	err     error
}

func (m *fakeModel) GenerateImage(context.Context, gemini.ImageInput, string) (gemini.Outcome, error) {
	return m.outcome, m.err
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, generation.Request, generation.Sink) (*generation.Result, error) {
	panic("boom")
}

func (panickingGenerator) Cost() int64 { return 1 }

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

type harness struct {
	deps   BotDeps
	sender *fakeSender
	photos *fakePhotos
	model  *fakeModel
	en     i18n.Localizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ledger := storage.NewLedger(db, nil)

	manager, err := i18n.NewManager("ru", zap.NewNop())
	require.NoError(t, err)

	cfg := &config.Config{
		DefaultLanguage: "ru",
		SupportUsername: "@fashion_support",
		Gemini:          config.GeminiConfig{AspectRatio: "3:4"},
		Admins:          config.AdminConfig{AdminUserIDs: []int64{adminID}},
		Balance:         config.BalanceConfig{CostPerGeneration: 1},
	}

	model := &fakeModel{outcome: &gemini.ImagePayload{Data: testPNG(), MimeType: "image/png"}}
	orchestrator := generation.NewOrchestrator(ledger, model, generation.Options{
		Cost:             1,
		Timeout:          5 * time.Second,
		ProgressInterval: 10 * time.Millisecond,
		ExpectedDuration: 100 * time.Millisecond,
	}, nil)

	sender := &fakeSender{}
	photos := &fakePhotos{dir: t.TempDir()}
	h := &harness{
		sender: sender,
		photos: photos,
		model:  model,
		en:     manager.For("en"),
	}
	h.deps = BotDeps{
		Bot:        sender,
		Config:     cfg,
		Ledger:     ledger,
		Sessions:   wizard.NewStore(nil),
		Machine:    wizard.NewMachine(wizard.DefaultPolicy()),
		Generator:  orchestrator,
		Photos:     photos,
		Authorizer: auth.NewAuthorizer(cfg.Admins.AdminUserIDs),
		I18n:       manager,
		Logger:     zap.NewNop(),
		Version:    "v1.2.3",
		BuildDate:  "2025-01-01",
	}
	return h
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: "Test", LanguageCode: "en"}
}

func (h *harness) command(from int64, text string) {
	name := strings.Fields(text)[0]
	HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      user(from),
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}, h.deps)
}

func (h *harness) text(from int64, text string) {
	HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		From:      user(from),
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}}, h.deps)
}

func (h *harness) photo(from int64) {
	HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		From:      user(from),
		Chat:      &tgbotapi.Chat{ID: from},
		Photo:     []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}}, h.deps)
}

func (h *harness) tap(from int64, data string) {
	HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    user(from),
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: from}},
		Data:    data,
	}}, h.deps)
}

func (h *harness) balance(t *testing.T, id int64) int64 {
	t.Helper()
	b, err := h.deps.Ledger.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (h *harness) acceptTerms(t *testing.T, id int64) {
	t.Helper()
	require.NoError(t, h.deps.Ledger.AcceptTerms(context.Background(), id))
}

// atStep opens a run for id and forces it onto step with a women's category.
func (h *harness) atStep(t *testing.T, id int64, step wizard.Step, photoPath string) {
	t.Helper()
	h.deps.Sessions.Begin(id, id)
	_, err := h.deps.Sessions.Update(id, func(p *wizard.Scratchpad) {
		p.Category = catalog.CategoryWomen
		p.PhotoPath = photoPath
		p.Step = step
	})
	require.NoError(t, err)
}

func TestAdminAddBalance(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 3))

	h.command(adminID, "/add_balance 42 5")

	assert.Equal(t, int64(8), h.balance(t, userID))
	assert.Equal(t, h.en.T("admin_balance_added", "user_id", "42", "amount", int64(5), "balance", int64(8)), h.sender.lastText())
}

func TestNonAdminCannotUseAdminCommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 3))

	h.command(userID, "/add_balance 42 5")
	assert.Equal(t, int64(3), h.balance(t, userID))
	assert.Equal(t, h.en.T("admin_only"), h.sender.lastText())

	h.command(userID, "/set_balance 42 100")
	assert.Equal(t, int64(3), h.balance(t, userID))
	assert.Equal(t, h.en.T("admin_only"), h.sender.lastText())

	h.command(userID, "/stats")
	assert.Equal(t, h.en.T("admin_only"), h.sender.lastText())
}

func TestAdminCommandArguments(t *testing.T) {
	h := newHarness(t)

	h.command(adminID, "/add_balance 42")
	assert.Equal(t, h.en.T("admin_usage_add_balance"), h.sender.lastText())

	h.command(adminID, "/add_balance abc 5")
	assert.Equal(t, h.en.T("admin_invalid_args"), h.sender.lastText())

	h.command(adminID, "/add_balance 42 0")
	assert.Equal(t, h.en.T("admin_amount_positive"), h.sender.lastText())

	h.command(adminID, "/set_balance 42 -1")
	assert.Equal(t, h.en.T("admin_amount_negative"), h.sender.lastText())

	h.command(adminID, "/set_balance 42 7")
	assert.Equal(t, int64(7), h.balance(t, userID))
}

func TestStatsCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 4))
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), 43, 6))

	h.command(adminID, "/stats")
	assert.Equal(t, h.en.T("admin_stats", "users", int64(2), "generations", int64(0), "balance", int64(10)), h.sender.lastText())
}

func TestStartShowsTermsUntilAccepted(t *testing.T) {
	h := newHarness(t)

	h.command(userID, "/start")
	assert.Equal(t, h.en.T("welcome"), h.sender.lastText())

	h.tap(userID, cbAcceptTerms)
	assert.Equal(t, h.en.T("main_menu"), h.sender.lastText())

	h.command(userID, "/start")
	assert.Equal(t, h.en.T("main_menu"), h.sender.lastText())
}

func TestCreatePhotoRequiresTerms(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 5))

	h.tap(userID, cbCreatePhoto)

	assert.Equal(t, h.en.T("welcome"), h.sender.lastText())
	_, ok := h.deps.Sessions.Get(userID)
	assert.False(t, ok)
}

func TestCreatePhotoWithoutBalance(t *testing.T) {
	h := newHarness(t)
	h.acceptTerms(t, userID)

	h.tap(userID, cbCreatePhoto)

	assert.Equal(t, h.en.T("insufficient_balance"), h.sender.lastText())
	_, ok := h.deps.Sessions.Get(userID)
	assert.False(t, ok)
}

func TestCreatePhotoGrantsFirstCredit(t *testing.T) {
	h := newHarness(t)
	h.deps.Config.Balance.FirstGenerationFree = true
	h.acceptTerms(t, userID)

	h.tap(userID, cbCreatePhoto)

	assert.Contains(t, h.sender.texts(), h.en.T("first_credit_granted"))
	assert.Equal(t, h.en.T("choose_category"), h.sender.lastText())
	assert.Equal(t, int64(1), h.balance(t, userID))

	// A second run does not grant again.
	h.tap(userID, cbCreatePhoto)
	assert.Equal(t, int64(1), h.balance(t, userID))
}

func TestHeightRejectionKeepsStep(t *testing.T) {
	h := newHarness(t)
	h.atStep(t, userID, wizard.StepHeight, "")

	h.text(userID, "tall")
	pad, _ := h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepHeight, pad.Step)
	assert.Equal(t, h.en.T("reject_height_not_a_number"), h.sender.lastText())

	h.text(userID, "300")
	pad, _ = h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepHeight, pad.Step)
	assert.Equal(t, h.en.T("reject_height_out_of_range", "min", 50, "max", 220), h.sender.lastText())

	h.text(userID, "175")
	pad, _ = h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepLength, pad.Step)
	assert.Equal(t, 175, pad.Height)
	assert.Equal(t, h.en.T("ask_length", "min", 10, "max", 250), h.sender.lastText())
}

func TestStaleButtonOnlyAnswersCallback(t *testing.T) {
	h := newHarness(t)
	h.atStep(t, userID, wizard.StepHeight, "")
	before := len(h.sender.texts())

	h.tap(userID, optionData(catalog.GroupLocation, catalog.LocationStreet))

	pad, _ := h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepHeight, pad.Step)
	assert.Len(t, h.sender.texts(), before)
	assert.Contains(t, h.sender.callbackAnswers(), h.en.T("callback_stale"))
}

func TestUnknownOptionIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.atStep(t, userID, wizard.StepCategory, "")

	h.tap(userID, "opt:category:pyjamas")

	pad, _ := h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepCategory, pad.Step)
	assert.Contains(t, h.sender.callbackAnswers(), h.en.T("callback_stale"))
}

func TestCancelRemovesCachedPhoto(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "cached.jpg")
	require.NoError(t, os.WriteFile(path, testPNG(), 0o600))
	h.atStep(t, userID, wizard.StepHeight, path)

	h.command(userID, "/cancel")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, ok := h.deps.Sessions.Get(userID)
	assert.False(t, ok)
	assert.Equal(t, h.en.T("cancel_done"), h.sender.lastText())

	h.command(userID, "/cancel")
	assert.Equal(t, h.en.T("cancel_nothing"), h.sender.lastText())
}

func cachedPhoto(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cached.jpg")
	require.NoError(t, os.WriteFile(path, testPNG(), 0o600))
	return path
}

func assertRunDiscarded(t *testing.T, h *harness, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cached photo should be removed")
	_, ok := h.deps.Sessions.Get(userID)
	assert.False(t, ok, "session should be discarded")
}

func TestStartDiscardsUnfinishedRun(t *testing.T) {
	h := newHarness(t)
	h.acceptTerms(t, userID)
	path := cachedPhoto(t)
	h.atStep(t, userID, wizard.StepHeight, path)

	h.command(userID, "/start")

	assertRunDiscarded(t, h, path)
	assert.Equal(t, h.en.T("main_menu"), h.sender.lastText())

	h.text(userID, "170")
	assert.Equal(t, h.en.T("no_session_hint"), h.sender.lastText())
}

func TestStartBeforeTermsDiscardsRun(t *testing.T) {
	h := newHarness(t)
	path := cachedPhoto(t)
	h.atStep(t, userID, wizard.StepLocation, path)

	h.command(userID, "/start")

	assertRunDiscarded(t, h, path)
	assert.Equal(t, h.en.T("welcome"), h.sender.lastText())
}

func TestBackToMainDiscardsRun(t *testing.T) {
	h := newHarness(t)
	path := cachedPhoto(t)
	h.atStep(t, userID, wizard.StepStyle, path)

	h.tap(userID, cbBackToMain)

	assertRunDiscarded(t, h, path)
	assert.Equal(t, h.en.T("main_menu"), h.sender.lastText())
}

func TestRestartWithoutBalanceDiscardsRun(t *testing.T) {
	h := newHarness(t)
	h.acceptTerms(t, userID)
	path := cachedPhoto(t)
	h.atStep(t, userID, wizard.StepConfirmation, path)

	h.tap(userID, cbRestart)

	assertRunDiscarded(t, h, path)
	assert.Equal(t, h.en.T("insufficient_balance"), h.sender.lastText())
}

func TestRestartBeginsFreshRun(t *testing.T) {
	h := newHarness(t)
	h.acceptTerms(t, userID)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 1))
	path := cachedPhoto(t)
	h.atStep(t, userID, wizard.StepConfirmation, path)

	h.tap(userID, cbRestart)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	pad, ok := h.deps.Sessions.Get(userID)
	require.True(t, ok)
	assert.Equal(t, wizard.StepCategory, pad.Step)
	assert.Empty(t, pad.PhotoPath)
	assert.Empty(t, pad.Category)
	assert.Equal(t, h.en.T("choose_category"), h.sender.lastText())
}

func TestUserStatsCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.deps.Ledger.SetBalance(ctx, userID, 2))
	_, err := h.deps.Ledger.RecordGeneration(ctx, userID, "prompt", catalog.CategoryWomen)
	require.NoError(t, err)

	h.command(adminID, "/stats 42")

	last := h.sender.lastText()
	assert.True(t, strings.HasPrefix(last, h.en.T("admin_user_stats", "user_id", "42", "balance", int64(2), "generations", int64(1))))
	assert.Contains(t, last, h.en.T("admin_user_recent"))
	assert.Contains(t, last, catalog.MustLookup(catalog.GroupCategory, catalog.CategoryWomen).Label(h.en))
	assert.Contains(t, last, "#1")

	h.command(adminID, "/stats abc")
	assert.Equal(t, h.en.T("admin_invalid_args"), h.sender.lastText())

	h.command(adminID, "/stats 1 2")
	assert.Equal(t, h.en.T("admin_usage_stats"), h.sender.lastText())
}

func TestTextWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.text(userID, "hello")
	assert.Equal(t, h.en.T("no_session_hint"), h.sender.lastText())
}

func TestPhotoFailureRepromptsPhotoStep(t *testing.T) {
	h := newHarness(t)
	h.atStep(t, userID, wizard.StepPhoto, "")
	h.photos.err = fmt.Errorf("network down")

	h.photo(userID)

	pad, _ := h.deps.Sessions.Get(userID)
	assert.Equal(t, wizard.StepPhoto, pad.Step)
	assert.Equal(t, h.en.T("photo_failed"), h.sender.lastText())
	assert.Equal(t, int64(0), h.balance(t, userID))
}

func TestWhiteBackgroundGeneration(t *testing.T) {
	h := newHarness(t)
	h.acceptTerms(t, userID)
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 2))

	h.tap(userID, cbCreatePhoto)
	h.tap(userID, optionData(catalog.GroupCategory, catalog.CategoryWhiteBG))
	pad, ok := h.deps.Sessions.Get(userID)
	require.True(t, ok)
	require.Equal(t, wizard.StepPhoto, pad.Step)

	h.photo(userID)
	assert.Equal(t, []string{"large"}, h.photos.fetched)
	pad, ok = h.deps.Sessions.Get(userID)
	require.True(t, ok)
	require.Equal(t, wizard.StepConfirmation, pad.Step)
	require.NotEmpty(t, pad.Prompt)
	photoPath := pad.PhotoPath

	h.tap(userID, cbGenerate)

	assert.Equal(t, int64(1), h.balance(t, userID))
	photos := h.sender.photos()
	require.Len(t, photos, 1)
	assert.Equal(t, h.en.T("generation_done"), photos[0].Caption)
	_, ok = h.deps.Sessions.Get(userID)
	assert.False(t, ok)
	_, err := os.Stat(photoPath)
	assert.True(t, os.IsNotExist(err))

	count, err := h.deps.Ledger.GenerationCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRefusalRefundsAndExplains(t *testing.T) {
	h := newHarness(t)
	h.model.outcome = &gemini.RefusalText{Text: "cannot help", FinishReason: "SAFETY"}
	require.NoError(t, h.deps.Ledger.SetBalance(context.Background(), userID, 1))

	path := filepath.Join(t.TempDir(), "cached.png")
	require.NoError(t, os.WriteFile(path, testPNG(), 0o600))
	h.deps.Sessions.Begin(userID, userID)
	_, err := h.deps.Sessions.Update(userID, func(p *wizard.Scratchpad) {
		p.Category = catalog.CategoryDisplay
		p.PhotoPath = path
		p.Step = wizard.StepConfirmation
		p.Prompt = "showcase"
	})
	require.NoError(t, err)

	h.tap(userID, cbGenerate)

	assert.Equal(t, int64(1), h.balance(t, userID))
	last := h.sender.lastText()
	assert.True(t, strings.HasPrefix(last, h.en.T("failure_refused")))
	assert.Contains(t, last, h.en.T("failure_refunded"))
	assert.Empty(t, h.sender.photos())
}

func TestGenerateWithoutConfirmationIsStale(t *testing.T) {
	h := newHarness(t)
	h.atStep(t, userID, wizard.StepHeight, "")

	h.tap(userID, cbGenerate)

	pad, ok := h.deps.Sessions.Get(userID)
	require.True(t, ok)
	assert.Equal(t, wizard.StepHeight, pad.Step)
	assert.Contains(t, h.sender.callbackAnswers(), h.en.T("callback_stale"))
}

func TestPanicIsReported(t *testing.T) {
	h := newHarness(t)
	h.deps.Generator = panickingGenerator{}
	h.deps.Sessions.Begin(userID, userID)
	_, err := h.deps.Sessions.Update(userID, func(p *wizard.Scratchpad) {
		p.Category = catalog.CategoryDisplay
		p.Step = wizard.StepConfirmation
		p.Prompt = "showcase"
	})
	require.NoError(t, err)
	assert.NotPanics(t, func() { h.tap(userID, cbGenerate) })
	assert.Equal(t, h.en.T("error_generic"), h.sender.lastText())

	h.deps.Sessions.Begin(adminID, adminID)
	_, err = h.deps.Sessions.Update(adminID, func(p *wizard.Scratchpad) {
		p.Category = catalog.CategoryDisplay
		p.Step = wizard.StepConfirmation
		p.Prompt = "showcase"
	})
	require.NoError(t, err)
	h.tap(adminID, cbGenerate)
	assert.Contains(t, h.sender.lastText(), "PANIC RECOVERED")
}

func TestHelpShowsAdminSection(t *testing.T) {
	h := newHarness(t)

	h.command(userID, "/help")
	assert.Equal(t, h.en.T("help_text"), h.sender.lastText())

	h.command(adminID, "/help")
	assert.Equal(t, h.en.T("help_text")+"\n\n"+h.en.T("help_admin"), h.sender.lastText())
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	h.command(userID, "/version")
	assert.Contains(t, h.sender.lastText(), "v1.2.3")
}
