// Package dream implements offline consolidation: replaying recently
// touched memories, discovering and strengthening connections between them,
// pruning the connection graph, and synthesizing insights (spec §4.6).
package dream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

const (
	defaultReplaySize = 50

	semanticCosineFloor     = 0.80
	sharedConceptTagFloor   = 2
	temporalCosineFloor     = 0.60
	temporalWindowHours     = 24.0
	complementaryCosineLow  = 0.55
	complementaryCosineHigh = 0.75

	strengthenSignalWeight = 0.3
	coActivationBonus      = 0.2
	maxEdgeWeight          = 2.0

	pruneDecayFactor = 0.95
	pruneDropBelow   = 0.1

	insightMinClusterSize = 3
)

// Cycle runs the five-phase consolidation pass against a Store. The engine
// calls Run without holding its own lock; Cycle's atomic running flag alone
// provides single-flight exclusion (spec §5: "a dream cycle is globally
// mutually exclusive with other dreams"), whoever the caller is.
type Cycle struct {
	store     storage.Store
	scheduler *scheduler.Scheduler
	sink      events.Sink

	replaySize int
	running    atomic.Bool
}

// New builds a Cycle. Dream scheduling thresholds (min interval, write
// count) live in the caller's config and are passed to ShouldTrigger
// directly rather than stored here, since Cycle itself only needs them at
// the trigger-check call site, not during a run.
func New(store storage.Store, sched *scheduler.Scheduler, sink events.Sink) *Cycle {
	return &Cycle{store: store, scheduler: sched, sink: sink, replaySize: defaultReplaySize}
}

// Report summarizes a completed dream cycle (spec §6 DreamReport).
type Report struct {
	MemoriesReplayed  int
	ConnectionsFound  int
	ConnectionsPruned int
	InsightsGenerated int
	DurationMS        int64
}

// ShouldTrigger reports whether a background tick should start a dream,
// given the persisted write counter/last-run timestamp and the configured
// thresholds (spec §4.6: timer >= 24h OR write counter >= 50).
func ShouldTrigger(state storage.EngineState, minInterval time.Duration, writeThreshold int, now time.Time) bool {
	if writeThreshold > 0 && state.WritesSinceLastDream >= writeThreshold {
		return true
	}
	if minInterval > 0 && !state.LastDreamAt.IsZero() && now.Sub(state.LastDreamAt) >= minInterval {
		return true
	}
	return false
}

// Run executes the five phases in order: Replay, CrossReference, Strengthen,
// Prune, Transfer. It is single-flight: a Run already in progress causes a
// concurrent call to return a KindInvariantViolation error immediately
// rather than block or queue.
func (c *Cycle) Run(ctx context.Context, now time.Time) (Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Report{}, verrors.New(verrors.KindInvariantViolation, "a dream cycle is already in progress")
	}
	defer c.running.Store(false)

	wallClockStart := time.Now()
	c.publish(types.Event{Variant: types.EvDreamStarted, Timestamp: now})

	replayed, err := c.replay(ctx, now)
	if err != nil {
		return Report{}, err
	}

	pairs := c.crossReference(replayed, now)

	found, err := c.strengthen(ctx, pairs, now)
	if err != nil {
		return Report{}, err
	}

	pruned, err := c.prune(ctx)
	if err != nil {
		return Report{}, err
	}

	insights, err := c.transfer(ctx, replayed, now)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		MemoriesReplayed:  len(replayed),
		ConnectionsFound:  found,
		ConnectionsPruned: pruned,
		InsightsGenerated: len(insights),
		DurationMS:        time.Since(wallClockStart).Milliseconds(),
	}

	if err := c.store.SaveEngineState(ctx, storage.EngineState{WritesSinceLastDream: 0, LastDreamAt: now}); err != nil {
		return report, verrors.Wrap(verrors.KindStorageError, err, "resetting dream schedule state")
	}

	c.publish(types.Event{Variant: types.EvDreamCompleted, Timestamp: now,
		Detail: "connections_found+insights_generated reported in tool response"})
	return report, nil
}

func (c *Cycle) publish(e types.Event) {
	if c.sink != nil {
		c.sink.Publish(e)
	}
}
