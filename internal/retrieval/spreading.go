package retrieval

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

type frontier struct {
	memoryID   string
	activation float64
	depth      int
}

// spreadingActivation runs Stage 7: for each winner, BFS the Connection
// graph to depth 2, decaying edge weight by 0.5 per hop. Any memory reached
// with activation >= 0.25 has its retrieval_strength boosted and
// last_accessed_at refreshed. This is a pure side effect: activated
// neighbors are reported but never added to the returned winner list
// (spec §4.4).
func (p *Pipeline) spreadingActivation(ctx context.Context, winners []*candidate, now time.Time) ([]string, error) {
	winnerSet := make(map[string]bool, len(winners))
	for _, w := range winners {
		winnerSet[w.memory.ID] = true
	}

	activatedAlready := make(map[string]bool)
	var activated []string

	for _, w := range winners {
		queue := []frontier{{memoryID: w.memory.ID, activation: 1.0, depth: 0}}
		visited := map[string]bool{w.memory.ID: true}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			if cur.depth >= spreadingDepth {
				continue
			}

			neighbors, err := p.store.Neighbors(ctx, cur.memoryID)
			if err != nil {
				return activated, verrors.Wrap(verrors.KindStorageError, err, "spreading activation neighbor lookup")
			}

			for _, conn := range neighbors {
				neighborID := conn.MemoryB
				if neighborID == cur.memoryID {
					neighborID = conn.MemoryA
				}
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true

				nextActivation := cur.activation * conn.Weight * spreadingHopDecay
				queue = append(queue, frontier{memoryID: neighborID, activation: nextActivation, depth: cur.depth + 1})

				if nextActivation < spreadingActivationFloor || winnerSet[neighborID] {
					continue
				}
				if err := p.boost(ctx, neighborID, now); err != nil {
					return activated, err
				}
				if !activatedAlready[neighborID] {
					activatedAlready[neighborID] = true
					activated = append(activated, neighborID)
				}
			}
		}
	}
	if len(activated) > 0 {
		p.publish(types.Event{Variant: types.EvActivationSpread, Timestamp: now, MemoryIDs: activated})
	}
	return activated, nil
}

func (p *Pipeline) boost(ctx context.Context, memoryID string, now time.Time) error {
	mem, err := p.store.Get(ctx, memoryID, false)
	if err != nil {
		return nil // memory gone or tombstoned between lookup and boost; skip quietly
	}

	newStrength := mem.RetrievalStrength + spreadingBoost
	if newStrength > 1 {
		newStrength = 1
	}
	mem.RetrievalStrength = newStrength
	mem.State = p.scheduler.ClassifyState(newStrength)
	mem.StateUpdatedAt = now
	mem.LastAccessedAt = now

	if err := p.store.UpdateRetentionFields(ctx, mem.ID,
		mem.Stability, mem.Difficulty, mem.StorageStrength, newStrength, mem.State); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "applying spreading activation boost")
	}
	return nil
}
