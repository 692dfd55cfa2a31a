package generation

import (
	"context"
	"time"
)

const (
	StageAnalysing  = "analysing"
	StageGenerating = "generating"
	StageFinishing  = "finishing"
	StageAlmostDone = "almost_done"
)

// progressCap keeps the bar short of full until the call really resolves.
const progressCap = 95

type Progress struct {
	Percent int
	Stage   string
	Elapsed time.Duration
}

// estimate maps elapsed time onto a percentage of the expected duration.
func estimate(elapsed, expected time.Duration) Progress {
	pct := 0
	if expected > 0 {
		pct = int(elapsed * 100 / expected)
	}
	if pct > progressCap {
		pct = progressCap
	}
	if pct < 0 {
		pct = 0
	}

	stage := StageAlmostDone
	switch {
	case pct < 25:
		stage = StageAnalysing
	case pct < 60:
		stage = StageGenerating
	case pct < 85:
		stage = StageFinishing
	}
	return Progress{Percent: pct, Stage: stage, Elapsed: elapsed}
}

// reportProgress pushes an estimate to sink on every tick until ctx ends.
func reportProgress(ctx context.Context, sink Sink, started time.Time, interval, expected time.Duration) {
	sink.Progress(estimate(0, expected))
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick may race with cancellation; the call has priority.
			if ctx.Err() != nil {
				return
			}
			sink.Progress(estimate(time.Since(started), expected))
		}
	}
}
