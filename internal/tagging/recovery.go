package tagging

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// RecoverUnswept re-sweeps every tag orphaned by a prior process lifetime
// (spec SPEC_FULL §3: a restart must not silently lose a pending capture),
// grounded on the teacher's RecoverPendingEnrichments: scan storage for
// work a crash interrupted, and carry it to completion on startup rather
// than waiting for a new trigger that may never come. Each unswept tag is
// treated as its own repeated_access event, since the tag that orphaned it
// no longer identifies the event that created it.
func (t *Tagger) RecoverUnswept(ctx context.Context, now time.Time) (int, error) {
	tags, err := t.store.UnsweptTags(ctx)
	if err != nil {
		return 0, verrors.Wrap(verrors.KindStorageError, err, "listing unswept synaptic tags")
	}

	recovered := 0
	for _, tag := range tags {
		baseStrength := types.BaseStrength[types.EventRepeatedAccess]
		radiusFactor := types.RadiusFactor[types.EventRepeatedAccess]
		decayFn := types.DecayFunctionFor[types.EventRepeatedAccess]
		deltaHours := now.Sub(tag.CreatedAt).Hours()
		p := captureProbability(decayFn, baseStrength, deltaHours, radiusFactor)

		if t.capture(p) {
			if mem, getErr := t.store.Get(ctx, tag.MemoryID, false); getErr == nil {
				if _, reviewErr := t.scheduler.Review(mem, scheduler.Good, now); reviewErr != nil {
					t.publish(types.Event{Variant: types.EvInvariantViolation, Timestamp: now, MemoryID: mem.ID})
				} else if updErr := t.store.Update(ctx, mem); updErr == nil {
					recovered++
				}
			}
		}

		if err := t.store.ConsumeSynapticTag(ctx, tag.MemoryID, tag.CreatedAt); err != nil {
			return recovered, verrors.Wrap(verrors.KindStorageError, err, "consuming recovered synaptic tag")
		}
	}
	return recovered, nil
}
