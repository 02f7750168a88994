package embedder

import (
	"context"
	"math"
)

// HashReranker scores candidates by cosine similarity between the query's
// and each candidate's HashEmbedder vector. It is the default Reranker
// paired with HashEmbedder when no real reranking model is configured.
type HashReranker struct {
	embedder *HashEmbedder
}

func NewHashReranker(embedder *HashEmbedder) *HashReranker {
	return &HashReranker{embedder: embedder}
}

func (r *HashReranker) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		vec, err := r.embedder.Embed(ctx, c)
		if err != nil {
			return nil, err
		}
		scores[i] = cosineSimilarity(queryVec, vec)
	}
	return scores, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
