package dream

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// strengthen upserts a Connection edge for every cross-referenced pair (spec
// §4.6 phase 3): new_weight = min(2.0, old_weight + 0.3*signal), with a
// further +0.2 for co-activation (both ends replayed in this cycle, which is
// always true for pairs crossReference produces).
func (c *Cycle) strengthen(ctx context.Context, pairs []pair, now time.Time) (int, error) {
	for _, p := range pairs {
		memA, memB := types.CanonicalPair(p.a.ID, p.b.ID)
		existing, err := c.store.GetConnection(ctx, memA, memB)
		if err != nil && !verrors.IsNotFound(err) {
			return 0, verrors.Wrap(verrors.KindStorageError, err, "looking up existing connection")
		}

		old := 0.0
		if existing != nil {
			old = existing.Weight
		}

		delta := strengthenSignalWeight * p.signal
		if p.coActivated {
			delta += coActivationBonus
		}
		weight := old + delta
		if weight > maxEdgeWeight {
			weight = maxEdgeWeight
		}

		conn := types.Connection{MemoryA: memA, MemoryB: memB, Weight: weight, DiscoveredAt: now, Type: p.connType}
		if err := c.store.UpsertConnection(ctx, conn); err != nil {
			return 0, verrors.Wrap(verrors.KindStorageError, err, "strengthening connection")
		}
		c.publish(types.Event{
			Variant: types.EvConnectionDiscovered, Timestamp: now,
			MemoryIDs: []string{memA, memB}, Detail: string(p.connType),
		})
	}
	return len(pairs), nil
}

// prune multiplies every edge weight by 0.95 and drops those below 0.1
// (spec §4.6 phase 4).
func (c *Cycle) prune(ctx context.Context) (int, error) {
	pruned, err := c.store.DecayAllConnections(ctx, pruneDecayFactor, pruneDropBelow)
	if err != nil {
		return 0, verrors.Wrap(verrors.KindStorageError, err, "pruning connection graph")
	}
	return pruned, nil
}
