package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/dream"
)

// Dream runs a consolidation pass on demand. dream.Cycle.Run already
// enforces single-flight exclusion, so a manual call that overlaps a
// background-triggered run simply fails fast with an invariant-violation
// error rather than queuing (spec §5).
func (e *Engine) Dream(ctx context.Context) (dream.Report, error) {
	if err := e.checkStarted(); err != nil {
		return dream.Report{}, err
	}

	now := time.Now()
	report, err := e.dreamCycle.Run(ctx, now)
	if err != nil {
		return dream.Report{}, err
	}

	_ = e.resetDreamCounters(ctx, now)
	return report, nil
}
