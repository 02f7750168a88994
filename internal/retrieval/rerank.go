package retrieval

import (
	"context"
	"math"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// rerankStage runs Stage 2: cross-encoder-style reranking over (query,
// content) pairs, sorting candidates descending by relevance. If no
// Reranker is configured or it errors, the stage is skipped entirely and
// the overfetch fusion order stands (spec §4.4: "the system must still
// function with degraded precision").
func (p *Pipeline) rerankStage(ctx context.Context, query string, cands []*candidate) ([]*candidate, string) {
	if p.rerank == nil {
		return cands, ""
	}

	texts := make([]string, len(cands))
	for i, c := range cands {
		texts[i] = c.memory.Content
	}

	scores, err := p.rerank.Rerank(ctx, query, texts)
	if err != nil || len(scores) != len(cands) {
		return cands, "reranker unavailable: results use overfetch fusion order"
	}

	for i, c := range cands {
		c.score = scores[i]
	}
	return cands, ""
}

// temporalBoost runs Stage 3: multiplies score by `1 + β·exp(-age_days/τ)`,
// bounded to [1.0, 1.2].
func (p *Pipeline) temporalBoost(cands []*candidate, now time.Time) {
	for _, c := range cands {
		ageDays := now.Sub(c.memory.CreatedAt).Hours() / 24.0
		if ageDays < 0 {
			ageDays = 0
		}
		multiplier := 1 + temporalBeta*math.Exp(-ageDays/temporalTau)
		if multiplier > 1.2 {
			multiplier = 1.2
		}
		if multiplier < 1.0 {
			multiplier = 1.0
		}
		c.score *= multiplier
	}
}

// accessibilityFilter runs Stage 4: drops candidates whose current
// retrievability is below min_retention, and always drops Unavailable
// memories unless the caller opted in.
func (p *Pipeline) accessibilityFilter(cands []*candidate, opts Options, now time.Time) []*candidate {
	out := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		if c.memory.State == types.StateUnavailable && !opts.IncludeUnavailable {
			continue
		}
		elapsed := now.Sub(c.memory.LastAccessedAt).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
		r := p.scheduler.Retrievability(elapsed, c.memory.Stability)
		c.retrievability = r
		if r < opts.MinRetention {
			continue
		}
		out = append(out, c)
	}
	return out
}
