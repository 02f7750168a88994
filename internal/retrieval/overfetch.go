package retrieval

import (
	"context"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

// overfetch runs Stage 1: keyword top-3k and vector top-3k, fused by
// `score = 0.3·norm(bm25) + 0.7·cos`, normalized min-max within each set and
// deduplicated by id (spec §4.4).
func (p *Pipeline) overfetch(ctx context.Context, opts Options) ([]*candidate, string, error) {
	limit := p.overfetchMultiplier * opts.K

	keywordScored, err := p.store.KeywordSearch(ctx, storage.SearchOptions{Query: opts.Query, Limit: limit})
	if err != nil {
		return nil, "", verrors.Wrap(verrors.KindStorageError, err, "keyword overfetch")
	}

	var vectorScored []storage.Scored
	warning := ""
	if p.embed != nil {
		vec, embedErr := p.embed.Embed(ctx, opts.Query)
		if embedErr != nil {
			warning = "embedder unavailable: results are keyword-only"
		} else {
			vectorScored, err = p.store.VectorSearch(ctx, storage.SearchOptions{Vector: toFloat32(vec), Limit: limit})
			if err != nil {
				warning = "vector index unavailable: results are keyword-only"
				vectorScored = nil
			}
		}
	} else {
		warning = "embedder unavailable: results are keyword-only"
	}

	bm25Norm := minMaxNormalize(keywordScored)

	byID := make(map[string]*candidate)
	for i, s := range keywordScored {
		byID[s.Memory.ID] = &candidate{memory: s.Memory, bm25: bm25Norm[i]}
	}
	for _, s := range vectorScored {
		if c, ok := byID[s.Memory.ID]; ok {
			c.cos = s.Score
		} else {
			byID[s.Memory.ID] = &candidate{memory: s.Memory, cos: s.Score}
		}
	}

	cands := make([]*candidate, 0, len(byID))
	for _, c := range byID {
		c.score = bm25Weight*c.bm25 + cosineWeight*c.cos
		cands = append(cands, c)
	}
	return cands, warning, nil
}

// minMaxNormalize rescales raw scores to [0,1] within the given set. A
// degenerate set (all scores equal) maps every score to 1.0.
func minMaxNormalize(scored []storage.Scored) []float64 {
	out := make([]float64, len(scored))
	if len(scored) == 0 {
		return out
	}
	min, max := scored[0].Score, scored[0].Score
	for _, s := range scored {
		if s.Score < min {
			min = s.Score
		}
		if s.Score > max {
			max = s.Score
		}
	}
	spread := max - min
	for i, s := range scored {
		if spread == 0 {
			out[i] = 1.0
			continue
		}
		out[i] = (s.Score - min) / spread
	}
	return out
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
