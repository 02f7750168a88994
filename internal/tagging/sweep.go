// Package tagging implements the synaptic-tagging retroactive-importance
// subsystem: SynapticTag emission is handled by internal/ingestgate at write
// time (spec §4.5 paragraph 1); this package implements the capture sweep an
// explicit importance event triggers (spec §4.5 paragraph 2 onward) and the
// crash-recovery resweep of tags orphaned mid-sweep.
package tagging

import (
	"context"
	"math/rand"
	"time"

	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// captureThreshold is the deterministic-mode capture cutoff (spec §4.5
// step 3: "if p >= 0.5 ... when deterministic mode is off" implies the
// inverse rule, a fixed threshold, when it's on).
const captureThreshold = 0.5

// Tagger runs synaptic tagging's capture sweep against a Store.
type Tagger struct {
	store         storage.Store
	scheduler     *scheduler.Scheduler
	sink          events.Sink
	backwardHours float64
	forwardHours  float64
	deterministic bool
}

// New builds a Tagger from the engine's loaded configuration.
func New(store storage.Store, sched *scheduler.Scheduler, sink events.Sink, cfg *config.Config) *Tagger {
	return &Tagger{
		store: store, scheduler: sched, sink: sink,
		backwardHours: cfg.CaptureBackwardHours,
		forwardHours:  cfg.CaptureForwardHours,
		deterministic: cfg.DeterministicMode,
	}
}

// SweepResult reports which memories a capture sweep pulled into the
// triggering event's importance_cluster.
type SweepResult struct {
	EventID   string
	Captured  []string
	Evaluated int
}

// Sweep runs a capture sweep for an explicit importance event (spec §4.5
// steps 1-4): it collects active tags in the event's window, computes each
// one's capture probability, applies a Good access plus importance_cluster
// membership for every tag that clears the threshold, and consumes every
// evaluated tag regardless of outcome.
func (t *Tagger) Sweep(ctx context.Context, eventKind types.ImportanceEventKind, eventID string, now time.Time) (SweepResult, error) {
	baseStrength, ok := types.BaseStrength[eventKind]
	if !ok {
		return SweepResult{}, verrors.New(verrors.KindInvalidInput, "unrecognized importance event kind")
	}
	radiusFactor := types.RadiusFactor[eventKind]
	decayFn := types.DecayFunctionFor[eventKind]

	from := now.Add(-time.Duration(t.backwardHours * float64(time.Hour)))
	to := now.Add(time.Duration(t.forwardHours * float64(time.Hour)))

	tags, err := t.store.ActiveTagsInWindow(ctx, from, to)
	if err != nil {
		return SweepResult{}, verrors.Wrap(verrors.KindStorageError, err, "collecting active synaptic tags")
	}

	result := SweepResult{EventID: eventID, Evaluated: len(tags)}
	for _, tag := range tags {
		deltaHours := now.Sub(tag.CreatedAt).Hours()
		p := captureProbability(decayFn, baseStrength, deltaHours, radiusFactor)

		if t.capture(p) {
			mem, err := t.store.Get(ctx, tag.MemoryID, false)
			if err != nil {
				continue // memory was purged since the tag was created; nothing left to strengthen
			}
			if _, err := t.scheduler.Review(mem, scheduler.Good, now); err != nil {
				t.publish(types.Event{Variant: types.EvInvariantViolation, Timestamp: now, MemoryID: mem.ID})
				return result, err
			}
			if err := t.store.Update(ctx, mem); err != nil {
				return result, verrors.Wrap(verrors.KindStorageError, err, "recording capture access")
			}
			result.Captured = append(result.Captured, tag.MemoryID)
		}

		if err := t.store.ConsumeSynapticTag(ctx, tag.MemoryID, tag.CreatedAt); err != nil {
			return result, verrors.Wrap(verrors.KindStorageError, err, "consuming synaptic tag")
		}
	}

	if err := t.linkCluster(ctx, result.Captured, now); err != nil {
		return result, err
	}

	t.publish(types.Event{
		Variant: types.EvImportanceScored, Timestamp: now,
		MemoryIDs: result.Captured, Detail: eventID,
	})
	return result, nil
}

func (t *Tagger) capture(p float64) bool {
	if t.deterministic {
		return p >= captureThreshold
	}
	return rand.Float64() < p
}

// linkCluster mutually connects every captured memory with a
// ConnImportanceCluster edge, so the cluster has a persistent, queryable
// backing (spec §4.5 step 3 "importance_cluster").
func (t *Tagger) linkCluster(ctx context.Context, memoryIDs []string, now time.Time) error {
	for i := 0; i < len(memoryIDs); i++ {
		for j := i + 1; j < len(memoryIDs); j++ {
			a, b := types.CanonicalPair(memoryIDs[i], memoryIDs[j])
			conn := types.Connection{MemoryA: a, MemoryB: b, Weight: 1.0, DiscoveredAt: now, Type: types.ConnImportanceCluster}
			if err := t.store.UpsertConnection(ctx, conn); err != nil {
				return verrors.Wrap(verrors.KindStorageError, err, "linking importance cluster")
			}
		}
	}
	return nil
}

func (t *Tagger) publish(e types.Event) {
	if t.sink != nil {
		t.sink.Publish(e)
	}
}
