// Package scheduler implements the FSRS-6 retention model: power-law
// retrievability, stability/difficulty evolution on access, and the derived
// storage/retrieval strength and accessibility classification that the rest
// of the cognitive engine reads off a Memory.
package scheduler

import (
	"math"
	"time"

	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// Rating is the response quality recorded on an access, matching FSRS's
// four-point scale. An AI-context access with no explicit signal defaults
// to Good.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// storageStrengthMaxDays normalizes storage_strength's log scale (spec §4.2:
// S_max = 365*20, twenty years).
const storageStrengthMaxDays = 365.0 * 20.0

// Scheduler evaluates and evolves the FSRS-6 state on a Memory. It holds no
// per-memory state itself; every method takes the Memory it operates on.
type Scheduler struct {
	w          config.FSRSWeights
	thresholds config.RetentionStateThresholds
}

// New builds a Scheduler from the engine's loaded configuration.
func New(cfg *config.Config) *Scheduler {
	return &Scheduler{w: cfg.FSRSWeights, thresholds: cfg.RetentionStateThresholds}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func daysBetween(from, to time.Time) float64 {
	if from.IsZero() {
		return 0
	}
	return to.Sub(from).Hours() / 24.0
}

// Retrievability computes R(t, S), the power-law forgetting curve (spec
// §4.2). t is elapsed days since the reference access; for t <= 0, R = 1;
// for S <= 0, R = 0.
func (s *Scheduler) Retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	if stability <= 0 {
		return 0
	}
	w20 := s.w[20]
	factor := math.Pow(0.9, -1/w20) - 1
	r := math.Pow(1+factor*elapsedDays/stability, -w20)
	return clamp(r, 0, 1)
}

// StorageStrength derives storage_strength from stability on a log scale
// bounded by a twenty-year ceiling (spec §4.2).
func (s *Scheduler) StorageStrength(stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return clamp(math.Log(1+stability)/math.Log(1+storageStrengthMaxDays), 0, 1)
}

// Accessibility is the composite predictor used by the retrieval pipeline's
// accessibility-filter stage (spec §4.2): retrieval_strength here is the
// value frozen at the memory's last access, not recomputed at now.
func (s *Scheduler) Accessibility(mem *types.Memory, now time.Time) float64 {
	elapsed := daysBetween(mem.LastAccessedAt, now)
	r := s.Retrievability(elapsed, mem.Stability)
	return 0.5*r + 0.3*mem.RetrievalStrength + 0.2*mem.StorageStrength
}

// ClassifyState maps a retrieval strength onto a MemoryState using the
// scheduler's configured thresholds rather than the package-level defaults,
// so a deployment that overrides retention_state_thresholds stays consistent
// end to end.
func (s *Scheduler) ClassifyState(retrievalStrength float64) types.MemoryState {
	switch {
	case retrievalStrength >= s.thresholds.Active:
		return types.StateActive
	case retrievalStrength >= s.thresholds.Dormant:
		return types.StateDormant
	case retrievalStrength >= s.thresholds.Silent:
		return types.StateSilent
	default:
		return types.StateUnavailable
	}
}

// Initialize sets a freshly created memory's FSRS-6 fields to their initial
// values (spec §4.2: S = w0, D = w4, retrieval_strength = 1.0).
func (s *Scheduler) Initialize(mem *types.Memory, now time.Time) {
	mem.Stability = s.w[0]
	mem.Difficulty = s.w[4]
	mem.StorageStrength = s.StorageStrength(mem.Stability)
	mem.RetrievalStrength = 1.0
	mem.LastAccessedAt = now
	mem.State = s.ClassifyState(mem.RetrievalStrength)
	mem.StateUpdatedAt = now
}

// ReviewResult carries the before/after state so the caller can decide
// whether to persist a state_transitions row.
type ReviewResult struct {
	PreviousState types.MemoryState
	NewState      types.MemoryState
}

// Review applies an access of the given rating to mem at instant now,
// updating Stability, Difficulty, StorageStrength, RetrievalStrength, State,
// StateUpdatedAt, and LastAccessedAt in place. Fuzzing is applied to the new
// stability deterministically from (mem.ID, now), except where the scatter
// alone would pull an otherwise non-decreasing stability below its current
// value; the unscattered value is kept then.
//
// storage_strength never decreases across any operation (spec §3 invariant,
// §8.1 testable property). If the computed update would lower it, Review
// fails with KindInvariantViolation and leaves mem entirely untouched rather
// than applying the regression (spec §7: invariant_violation "MUST fail the
// current operation and leave state untouched").
func (s *Scheduler) Review(mem *types.Memory, rating Rating, now time.Time) (ReviewResult, error) {
	previousState := mem.State
	elapsed := daysBetween(mem.LastAccessedAt, now)
	r := s.Retrievability(elapsed, mem.Stability)

	var newStability float64
	switch {
	case rating == Again:
		newStability = s.forgetStability(mem.Difficulty, mem.Stability, r)
	case elapsed < 1:
		newStability = s.sameDayStability(mem.Stability, rating)
	default:
		newStability = s.reviewStability(mem.Difficulty, mem.Stability, r, rating)
	}
	if fuzzed := fuzz(newStability, mem.ID, now); fuzzed >= mem.Stability || newStability < mem.Stability {
		newStability = fuzzed
	}
	newStorageStrength := s.StorageStrength(newStability)

	if newStorageStrength < mem.StorageStrength {
		return ReviewResult{}, verrors.New(verrors.KindInvariantViolation,
			"review would decrease storage_strength")
	}

	mem.Stability = newStability
	mem.Difficulty = s.reviewDifficulty(mem.Difficulty, rating)
	mem.StorageStrength = newStorageStrength
	mem.RetrievalStrength = s.Retrievability(0, mem.Stability) // value right after this access: t=0 -> 1.0, recorded as the post-access anchor
	mem.LastAccessedAt = now
	mem.State = s.ClassifyState(mem.RetrievalStrength)
	mem.StateUpdatedAt = now

	return ReviewResult{PreviousState: previousState, NewState: mem.State}, nil
}

// reviewStability implements the general (non-Again, non-same-day) update:
// S' = S * (1 + exp(w8) * (11-D) * S^(-w9) * (exp((1-R)*w10) - 1) * hard_penalty * easy_bonus.
func (s *Scheduler) reviewStability(difficulty, stability, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = s.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = s.w[16]
	}
	growth := math.Exp(s.w[8]) * (11 - difficulty) * math.Pow(stability, -s.w[9]) *
		(math.Exp((1-r)*s.w[10]) - 1) * hardPenalty * easyBonus
	return stability * (1 + growth)
}

// forgetStability implements the Again forget-reset: S' = w11 * D^(-w12) *
// ((S+1)^w13 - 1) * exp((1-R)*w14).
func (s *Scheduler) forgetStability(difficulty, stability, r float64) float64 {
	return s.w[11] * math.Pow(difficulty, -s.w[12]) * (math.Pow(stability+1, s.w[13]) - 1) * math.Exp((1-r)*s.w[14])
}

// sameDayStability implements the gentler same-day repeated-access update
// controlled by w17..w19, preventing runaway stability growth when a memory
// is accessed multiple times within a single day.
func (s *Scheduler) sameDayStability(stability float64, rating Rating) float64 {
	shortTermFactor := math.Exp(s.w[17] * (float64(rating) - 3 + s.w[18]))
	return stability * math.Pow(shortTermFactor, s.w[19])
}

// reviewDifficulty implements D' = clamp(D - w6*(q-3), 1, 10) with
// mean-reversion toward w4 (spec §4.2).
func (s *Scheduler) reviewDifficulty(difficulty float64, rating Rating) float64 {
	candidate := clamp(difficulty-s.w[6]*(float64(rating)-3), 1, 10)
	reverted := s.w[7]*s.w[4] + (1-s.w[7])*candidate
	return clamp(reverted, 1, 10)
}
