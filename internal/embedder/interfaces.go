// Package embedder provides the external-collaborator interfaces the engine
// calls out to during ingest and retrieval (text embedding and candidate
// reranking), wrapped in rate limiting and circuit breaking so a flaky or
// slow backend degrades gracefully instead of blocking the engine's single
// coarse lock.
package embedder

import "context"

// Embedder turns text into a fixed-dimension vector for cosine similarity
// search and candidate-lookup during ingest gating.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Reranker scores a query against a set of candidate texts, returning one
// relevance score per candidate in the same order. Used by the retrieval
// pipeline's rerank stage (spec §4.4).
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string) ([]float64, error)
}
