package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic, dependency-free Embedder: every call with
// the same text and dimension produces the identical vector, with no network
// call and no model weights. It exists as the default collaborator when no
// real inference backend is configured, and as the engine's test double,
// mirroring the teacher's pattern of a local Ollama default with network
// calls swapped out here for a closed-form hash.
//
// It is not a semantic embedding: tokens are hashed into buckets and the
// resulting vector L2-normalized, so cosine similarity rewards shared
// vocabulary rather than shared meaning. Good enough to exercise the
// retrieval and gating pipelines end to end without an external dependency.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder builds a HashEmbedder producing vectors of the given
// dimension.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	for _, tok := range tokenize(text) {
		fh := fnv.New64a()
		_, _ = fh.Write([]byte(tok))
		bucket := int(fh.Sum64() % uint64(h.dim))

		sh := fnv.New64a()
		_, _ = sh.Write([]byte(tok + "|sign"))
		sign := 1.0
		if sh.Sum64()%2 == 0 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
