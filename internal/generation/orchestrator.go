// Package generation runs one confirmed scratchpad through the paid
// generation protocol: check balance, debit, call the image model while
// reporting progress, normalize and deliver the image, refund on failure.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/metrics"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/storage"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
	"github.com/nerdneilsfield/telegram-fashion-bot/pkg/gemini"
)

type Ledger interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID, amount int64) (int64, error)
	AddBalance(ctx context.Context, userID, delta int64) (int64, error)
	RecordGeneration(ctx context.Context, userID int64, prompt, category string) (int64, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, img gemini.ImageInput, prompt string) (gemini.Outcome, error)
}

// Sink receives progress while the upstream call is outstanding and the
// final image once it is ready. Progress is never called after Generate
// returns.
type Sink interface {
	Progress(p Progress)
	Deliver(ctx context.Context, jpeg []byte) error
}

type Options struct {
	Cost             int64
	Timeout          time.Duration
	ProgressInterval time.Duration
	ExpectedDuration time.Duration
	MaxConcurrent    int64
	JPEGQuality      int
}

func (o Options) withDefaults() Options {
	if o.Cost <= 0 {
		o.Cost = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = 3 * time.Second
	}
	if o.ExpectedDuration <= 0 {
		o.ExpectedDuration = 25 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 92
	}
	return o
}

type Request struct {
	UserID int64
	// Exempt users are neither checked nor debited.
	Exempt    bool
	PhotoPath string
	Prompt    string
	Category  string
}

type Result struct {
	GenerationID int64
	Charged      bool
	Elapsed      time.Duration
	Size         int
}

type Orchestrator struct {
	ledger    Ledger
	generator ImageGenerator
	opts      Options
	slots     *semaphore.Weighted
	running   sync.Map
	logger    *zap.Logger
}

func NewOrchestrator(ledger Ledger, generator ImageGenerator, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Orchestrator{
		ledger:    ledger,
		generator: generator,
		opts:      opts,
		slots:     semaphore.NewWeighted(opts.MaxConcurrent),
		logger:    logger.Named("generation"),
	}
}

func (o *Orchestrator) Cost() int64 { return o.opts.Cost }

// Generate runs the paid protocol for req. The cached photo is removed on
// every path. A *Failure means the credit was taken and (if Refunded) given
// back; ErrInsufficientBalance means nothing was charged.
func (o *Orchestrator) Generate(ctx context.Context, req Request, sink Sink) (*Result, error) {
	defer wizard.RemovePhoto(req.PhotoPath, o.logger)

	if _, loaded := o.running.LoadOrStore(req.UserID, struct{}{}); loaded {
		return nil, ErrAlreadyRunning
	}
	defer o.running.Delete(req.UserID)

	log := o.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("user_id", req.UserID),
		zap.String("category", req.Category),
		zap.String("prompt_hash", storage.PromptFingerprint(req.Prompt)),
	)

	photo, err := os.ReadFile(req.PhotoPath)
	if err != nil || len(photo) == 0 {
		log.Warn("Cached photo unavailable", zap.String("path", req.PhotoPath), zap.Error(err))
		return nil, ErrPhotoUnavailable
	}

	charged := false
	if !req.Exempt {
		balance, err := o.ledger.GetBalance(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("read balance: %w", err)
		}
		if balance < o.opts.Cost {
			metrics.ObserveGeneration(metrics.OutcomeInsufficient, 0)
			return nil, ErrInsufficientBalance
		}
		if _, err := o.ledger.Debit(ctx, req.UserID, o.opts.Cost); err != nil {
			if errors.Is(err, storage.ErrInsufficientBalance) {
				metrics.ObserveGeneration(metrics.OutcomeInsufficient, 0)
				return nil, ErrInsufficientBalance
			}
			return nil, fmt.Errorf("debit: %w", err)
		}
		charged = true
		log.Info("Balance debited", zap.Int64("amount", o.opts.Cost))
	}

	// From here on every failure must end in a refund.
	fail := func(err error, class string) (*Result, error) {
		if class == "" {
			class = classify(err)
		}
		f := &Failure{Class: class, Detail: truncate(err.Error(), maxDetailRunes), Err: err}
		if charged {
			f.Refunded = o.refund(req.UserID, log)
		}
		metrics.IncFailure(f.Class)
		metrics.ObserveGeneration(metrics.OutcomeFailed, 0)
		log.Warn("Generation failed",
			zap.String("class", f.Class),
			zap.Bool("refunded", f.Refunded),
			zap.Error(err))
		return nil, f
	}

	generationID, err := o.ledger.RecordGeneration(ctx, req.UserID, req.Prompt, req.Category)
	if err != nil {
		return fail(fmt.Errorf("record generation: %w", err), ClassGeneric)
	}

	started := time.Now()
	outcome, err := o.invoke(ctx, photo, req.Prompt, sink, started)
	elapsed := time.Since(started)
	if err != nil {
		return fail(err, "")
	}

	var jpegData []byte
	switch out := outcome.(type) {
	case *gemini.ImagePayload:
		jpegData, err = Normalize(out.Data, o.opts.JPEGQuality)
		if err != nil {
			return fail(err, ClassUndecodable)
		}
	case *gemini.RefusalText:
		detail := out.Reason()
		if out.Text != "" {
			detail += ": " + out.Text
		}
		return fail(fmt.Errorf("%w: %s", errRefused, detail), ClassRefused)
	default:
		return fail(fmt.Errorf("%w: unexpected outcome %T", gemini.ErrMalformedResponse, outcome), ClassMalformed)
	}

	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 60*time.Second)
	defer cancel()
	if err := sink.Deliver(deliverCtx, jpegData); err != nil {
		return fail(fmt.Errorf("deliver: %w", err), ClassDelivery)
	}

	metrics.ObserveGeneration(metrics.OutcomeSuccess, elapsed)
	log.Info("Generation delivered",
		zap.Int64("generation_id", generationID),
		zap.Duration("elapsed", elapsed),
		zap.Int("bytes", len(jpegData)))
	return &Result{GenerationID: generationID, Charged: charged, Elapsed: elapsed, Size: len(jpegData)}, nil
}

// invoke runs the upstream call next to the progress loop and stops the loop
// as soon as the call resolves.
func (o *Orchestrator) invoke(ctx context.Context, photo []byte, prompt string, sink Sink, started time.Time) (gemini.Outcome, error) {
	// The user cannot cancel a paid call; only the timeout ends it early.
	callCtx, cancelCall := context.WithTimeout(context.WithoutCancel(ctx), o.opts.Timeout)
	defer cancelCall()
	progressCtx, stopProgress := context.WithCancel(callCtx)
	defer stopProgress()

	var (
		outcome gemini.Outcome
		callErr error
		g       errgroup.Group
	)
	g.Go(func() error {
		reportProgress(progressCtx, sink, started, o.opts.ProgressInterval, o.opts.ExpectedDuration)
		return nil
	})
	g.Go(func() error {
		defer stopProgress()
		if err := o.slots.Acquire(callCtx, 1); err != nil {
			callErr = fmt.Errorf("wait for generation slot: %w", err)
			return nil
		}
		defer o.slots.Release(1)
		outcome, callErr = o.generator.GenerateImage(callCtx, gemini.ImageInput{
			Data:     photo,
			MimeType: http.DetectContentType(photo),
		}, prompt)
		return nil
	})
	_ = g.Wait()

	if callErr == nil && outcome == nil {
		callErr = fmt.Errorf("%w: no outcome", gemini.ErrMalformedResponse)
	}
	return outcome, callErr
}

func (o *Orchestrator) refund(userID int64, log *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	balance, err := o.ledger.AddBalance(ctx, userID, o.opts.Cost)
	if err != nil {
		log.Error("Refund failed", zap.Int64("amount", o.opts.Cost), zap.Error(err))
		return false
	}
	metrics.IncRefund()
	log.Info("Balance refunded", zap.Int64("amount", o.opts.Cost), zap.Int64("balance", balance))
	return true
}
