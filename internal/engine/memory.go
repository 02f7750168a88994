package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// retentionNudge is the fixed ±0.1 retrieval_strength adjustment promote/
// demote apply (spec §6 memory tool row).
const retentionNudge = 0.1

// GetMemory fetches a single memory by id.
func (e *Engine) GetMemory(ctx context.Context, id string, includeDeleted bool) (*types.Memory, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, id, includeDeleted)
}

// DeleteMemory soft-deletes a memory and publishes the tombstone event.
func (e *Engine) DeleteMemory(ctx context.Context, id string) error {
	if err := e.checkStarted(); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.sink.Publish(types.Event{Variant: types.EvMemoryDeleted, Timestamp: time.Now(), MemoryID: id})
	return nil
}

// MemoryState reports a memory's current scheduler-derived state without
// mutating anything.
func (e *Engine) MemoryState(ctx context.Context, id string) (types.MemoryState, error) {
	if err := e.checkStarted(); err != nil {
		return "", err
	}
	mem, err := e.store.Get(ctx, id, false)
	if err != nil {
		return "", err
	}
	return mem.State, nil
}

// PromoteMemory strengthens a memory's retrieval_strength by +0.1 (clamped
// to 1), reclassifies its state, and publishes the promotion.
func (e *Engine) PromoteMemory(ctx context.Context, id string) (*types.Memory, error) {
	return e.nudgeRetention(ctx, id, retentionNudge, types.EvMemoryPromoted)
}

// DemoteMemory weakens a memory's retrieval_strength by -0.1 (clamped to 0),
// reclassifies its state, and publishes the demotion.
func (e *Engine) DemoteMemory(ctx context.Context, id string) (*types.Memory, error) {
	return e.nudgeRetention(ctx, id, -retentionNudge, types.EvMemoryDemoted)
}

func (e *Engine) nudgeRetention(ctx context.Context, id string, delta float64, variant types.EventVariant) (*types.Memory, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}

	mem, err := e.store.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	from := mem.State
	next := mem.RetrievalStrength + delta
	if next > 1 {
		next = 1
	}
	if next < 0 {
		next = 0
	}
	mem.RetrievalStrength = next
	mem.State = e.scheduler.ClassifyState(next)

	if err := e.store.UpdateRetentionFields(ctx, id, mem.Stability, mem.Difficulty, mem.StorageStrength, mem.RetrievalStrength, mem.State); err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "updating retention fields")
	}

	if mem.State != from {
		t := storage.StateTransition{MemoryID: id, From: from, To: mem.State, Reason: "manual adjustment", Timestamp: time.Now()}
		if err := e.store.RecordStateTransition(ctx, t); err != nil {
			return nil, verrors.Wrap(verrors.KindStorageError, err, "recording state transition")
		}
	}

	e.sink.Publish(types.Event{Variant: variant, Timestamp: time.Now(), MemoryID: id, FromState: from, ToState: mem.State})
	return mem, nil
}
