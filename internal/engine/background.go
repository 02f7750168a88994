package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/dream"
	"github.com/zeroaltitude/vestige/internal/intentions"
)

// intentionTickInterval is the cadence of the background intention-trigger
// check, independent of and shorter than the dream-eligibility check — a
// snoozed time-based intention should fire close to its due time, not only
// when a dream happens to run.
const intentionTickInterval = 60 * time.Second

// dreamTickInterval is how often the background loop re-checks dream
// eligibility. dream.ShouldTrigger itself enforces the configured minimum
// interval and write threshold; this is just the polling cadence.
const dreamTickInterval = 5 * time.Minute

// runBackgroundLoop is the engine's ticker-driven heartbeat, grounded on the
// teacher's backup_service.go Start loop: select over ctx.Done and two
// independent tickers, closing backgroundDone on exit so Shutdown can wait
// on it.
func (e *Engine) runBackgroundLoop(ctx context.Context) {
	defer close(e.backgroundDone)

	dreamTicker := time.NewTicker(dreamTickInterval)
	defer dreamTicker.Stop()
	intentionTicker := time.NewTicker(intentionTickInterval)
	defer intentionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dreamTicker.C:
			e.maybeDream(ctx)
		case <-intentionTicker.C:
			e.tickIntentions(ctx)
		}
	}
}

// maybeDream starts a dream cycle if the scheduler-backed eligibility check
// passes. Cycle.Run already single-flights itself, so a tick that overlaps a
// still-running manually-triggered dream is a harmless no-op there.
func (e *Engine) maybeDream(ctx context.Context) {
	now := time.Now()
	minInterval := time.Duration(e.cfg.DreamMinIntervalHours * float64(time.Hour))
	if !dream.ShouldTrigger(e.engineState(), minInterval, e.cfg.DreamWriteThreshold, now) {
		return
	}
	if _, err := e.dreamCycle.Run(ctx, now); err != nil {
		return
	}
	_ = e.resetDreamCounters(ctx, now)
}

// tickIntentions evaluates every active intention's trigger against the
// ambient (tag/project-less) background context, firing time- and
// event-based triggers on their own cadence rather than only when a caller
// happens to search.
func (e *Engine) tickIntentions(ctx context.Context) {
	_, _ = e.intentions.Check(ctx, intentions.Context{}, time.Now())
}
