// Package metrics exposes generation and wizard counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	OutcomeSuccess      = "success"
	OutcomeFailed       = "failed"
	OutcomeInsufficient = "insufficient_balance"
)

var (
	registry = prometheus.NewRegistry()

	generationsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fashionbot_generations_total",
			Help: "Generation attempts partitioned by outcome.",
		},
		[]string{"outcome"},
	)
	failuresTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fashionbot_generation_failures_total",
			Help: "Failed generations partitioned by failure class.",
		},
		[]string{"class"},
	)
	refundsTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "fashionbot_refunds_total",
			Help: "Credits returned after a failed generation.",
		},
	)
	wizardRejections = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fashionbot_wizard_rejections_total",
			Help: "Wizard inputs rejected without advancing, partitioned by step.",
		},
		[]string{"step"},
	)
	generationDuration = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fashionbot_generation_duration_seconds",
			Help:    "Wall-clock time of upstream generation calls.",
			Buckets: []float64{2, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
		},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func ObserveGeneration(outcome string, elapsed time.Duration) {
	generationsTotal.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		generationDuration.Observe(elapsed.Seconds())
	}
}

func IncFailure(class string) {
	failuresTotal.WithLabelValues(class).Inc()
}

func IncRefund() {
	refundsTotal.Inc()
}

func IncWizardRejection(step string) {
	wizardRejections.WithLabelValues(step).Inc()
}

// Handler serves the bot's registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Serve exposes /metrics and /health on addr until ctx is cancelled.
// An empty addr disables the listener.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
