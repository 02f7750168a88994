package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// connectionPruneFactor/connectionPruneFloor mirror the dream cycle's own
// prune phase constants (spec §4.6 phase 4), applied here too since
// consolidate() is the explicit, caller-triggered counterpart to the
// periodic dream — both age the same graph the same way.
const (
	connectionPruneFactor = 0.95
	connectionPruneFloor  = 0.1
)

// ConsolidateReport summarizes a consolidate() call (spec §6 consolidate
// tool row: "applies Scheduler decay to all memories + triggers pruning").
type ConsolidateReport struct {
	MemoriesDecayed   int
	StateTransitions  int
	ConnectionsPruned int
}

// Consolidate recomputes every active memory's retrievability against the
// current instant, persists the resulting retrieval_strength/state, and
// ages the connection graph — the eager counterpart to the passive decay
// the scheduler otherwise only applies lazily at access/search time.
func (e *Engine) Consolidate(ctx context.Context) (ConsolidateReport, error) {
	if err := e.checkStarted(); err != nil {
		return ConsolidateReport{}, err
	}

	now := time.Now()
	memories, err := e.store.AllActive(ctx)
	if err != nil {
		return ConsolidateReport{}, verrors.Wrap(verrors.KindStorageError, err, "listing active memories")
	}

	report := ConsolidateReport{}
	for _, mem := range memories {
		if err := e.decayOne(ctx, mem, now, &report); err != nil {
			return report, err
		}
	}

	pruned, err := e.store.DecayAllConnections(ctx, connectionPruneFactor, connectionPruneFloor)
	if err != nil {
		return report, verrors.Wrap(verrors.KindStorageError, err, "pruning connection graph")
	}
	report.ConnectionsPruned = pruned

	e.sink.Publish(types.Event{Variant: types.EvConsolidationStarted, Timestamp: now})
	e.sink.Publish(types.Event{Variant: types.EvConsolidationCompleted, Timestamp: now})
	return report, nil
}

func (e *Engine) decayOne(ctx context.Context, mem *types.Memory, now time.Time, report *ConsolidateReport) error {
	elapsed := now.Sub(mem.LastAccessedAt).Hours() / 24.0
	if elapsed <= 0 {
		return nil
	}

	from := mem.State
	r := accessibilityAwareRetrievability(e.scheduler, mem, elapsed)
	mem.RetrievalStrength = r
	mem.State = e.scheduler.ClassifyState(r)
	mem.StateUpdatedAt = now
	report.MemoriesDecayed++

	if err := e.store.UpdateRetentionFields(ctx, mem.ID, mem.Stability, mem.Difficulty, mem.StorageStrength, r, mem.State); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "persisting decayed retention fields")
	}

	if mem.State != from {
		report.StateTransitions++
		t := storage.StateTransition{MemoryID: mem.ID, From: from, To: mem.State, Reason: "consolidation_decay", Timestamp: now}
		if err := e.store.RecordStateTransition(ctx, t); err != nil {
			return verrors.Wrap(verrors.KindStorageError, err, "recording consolidation state transition")
		}
		e.sink.Publish(types.Event{Variant: types.EvRetentionDecayed, Timestamp: now, MemoryID: mem.ID, FromState: from, ToState: mem.State})
	}
	return nil
}

// accessibilityAwareRetrievability re-derives retrieval_strength the same
// way the scheduler's Accessibility helper reads it off stability and
// elapsed time, without folding in the composite's retrieval/storage terms
// — consolidate() writes the retrievability itself back, not a blended score.
func accessibilityAwareRetrievability(s *scheduler.Scheduler, mem *types.Memory, elapsedDays float64) float64 {
	return s.Retrievability(elapsedDays, mem.Stability)
}
