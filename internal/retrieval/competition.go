package retrieval

import (
	"context"
	"math"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// competition runs Stage 6 (retrieval-induced forgetting): every loser whose
// cosine similarity with any winner is >= 0.80 has its retrieval_strength
// decremented, clamped at 0, and the resulting state transition recorded if
// it crosses a state boundary (spec §4.4).
func (p *Pipeline) competition(ctx context.Context, winners, losers []*candidate, now time.Time) ([]storage.StateTransition, error) {
	var transitions []storage.StateTransition
	if len(losers) == 0 {
		return transitions, nil
	}

	for _, loser := range losers {
		suppressed := false
		for _, winner := range winners {
			if cosineBetween(loser.memory, winner.memory) >= competitionCosineFloor {
				suppressed = true
				break
			}
		}
		if !suppressed {
			continue
		}

		before := loser.memory.State
		newStrength := loser.memory.RetrievalStrength - competitionPenalty
		if newStrength < 0 {
			newStrength = 0
		}
		loser.memory.RetrievalStrength = newStrength
		loser.memory.State = p.scheduler.ClassifyState(newStrength)
		loser.memory.StateUpdatedAt = now

		if err := p.store.UpdateRetentionFields(ctx, loser.memory.ID,
			loser.memory.Stability, loser.memory.Difficulty,
			loser.memory.StorageStrength, newStrength, loser.memory.State); err != nil {
			return transitions, verrors.Wrap(verrors.KindStorageError, err, "applying competition penalty")
		}

		if before != loser.memory.State {
			t := storage.StateTransition{
				MemoryID: loser.memory.ID, From: before, To: loser.memory.State,
				Reason: "retrieval_induced_forgetting", Timestamp: now,
			}
			if err := p.store.RecordStateTransition(ctx, t); err != nil {
				return transitions, verrors.Wrap(verrors.KindStorageError, err, "recording competition state transition")
			}
			transitions = append(transitions, t)
			p.publish(types.Event{
				Variant: types.EvMemoryDemoted, Timestamp: now, MemoryID: loser.memory.ID,
				FromState: before, ToState: loser.memory.State, Detail: "retrieval_induced_forgetting",
			})
		}
	}
	return transitions, nil
}

// cosineBetween computes cosine similarity directly between two candidates'
// stored embeddings, independent of either one's raw cosine-to-query score.
func cosineBetween(a, b *candidate) float64 {
	va, vb := a.memory.Embedding, b.memory.Embedding
	if len(va) != len(vb) || len(va) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range va {
		dot += float64(va[i]) * float64(vb[i])
		normA += float64(va[i]) * float64(va[i])
		normB += float64(vb[i]) * float64(vb[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
