package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

var _ storage.KeywordSearcher = (*Store)(nil)
var _ storage.VectorSearcher = (*Store)(nil)

// KeywordSearch performs FTS5-backed full-text search across memory content
// and tags. BM25 rank values are negative (more negative is a better
// match); Score is reported as the negated rank so higher is better,
// matching VectorSearch's convention.
func (s *Store) KeywordSearch(ctx context.Context, opts storage.SearchOptions) ([]storage.Scored, error) {
	opts.Normalize()

	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	ftsQuery := sanitiseFTSQuery(opts.Query)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, bm25(memories_fts) AS rank
		FROM memories_fts fts
		JOIN memories m ON m.rowid = fts.rowid
		WHERE memories_fts MATCH ? AND m.unavailable = 0
		ORDER BY rank
		LIMIT ? OFFSET ?
	`, ftsQuery, opts.Limit, opts.Offset)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, fmt.Sprintf("keyword search %q", opts.Query))
	}
	defer rows.Close()

	type hit struct {
		id   string
		rank float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.rank); err != nil {
			continue
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "iterating keyword search results")
	}

	if len(hits) == 0 && opts.FuzzyFallback {
		terms := strings.Fields(opts.Query)
		if len(terms) > 1 {
			relaxed := opts
			relaxed.Query = strings.Join(terms, " OR ")
			relaxed.FuzzyFallback = false
			return s.KeywordSearch(ctx, relaxed)
		}
	}

	out := make([]storage.Scored, 0, len(hits))
	for _, h := range hits {
		mem, err := s.Get(ctx, h.id, false)
		if err != nil {
			continue
		}
		out = append(out, storage.Scored{Memory: mem, Score: -h.rank})
	}
	return out, nil
}

// vectorSearchMaxCandidates caps the number of embeddings loaded into Go
// memory during a vector search. For the spec's target scale (<10k
// memories) this limit is never reached; a larger deployment would migrate
// to a real ANN index behind the same VectorSearcher interface.
const vectorSearchMaxCandidates = 10_000

// VectorSearch ranks stored embeddings by cosine similarity to opts.Vector.
// Embeddings are loaded newest-first up to vectorSearchMaxCandidates.
func (s *Store) VectorSearch(ctx context.Context, opts storage.SearchOptions) ([]storage.Scored, error) {
	opts.Normalize()

	if len(opts.Vector) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding, embedding_dimension
		FROM memories
		WHERE unavailable = 0 AND embedding IS NOT NULL
		ORDER BY created_at DESC
		LIMIT ?
	`, vectorSearchMaxCandidates)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "loading embeddings")
	}
	defer rows.Close()

	type candidate struct {
		id    string
		score float64
	}
	var candidates []candidate
	for rows.Next() {
		var id string
		var blob []byte
		var dim int
		if err := rows.Scan(&id, &blob, &dim); err != nil {
			continue
		}
		emb := decodeEmbedding(blob, dim)
		if emb == nil {
			continue
		}
		candidates = append(candidates, candidate{id, cosineSimilarity(opts.Vector, emb)})
	}
	if err := rows.Err(); err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "iterating embeddings")
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	end := opts.Offset + opts.Limit
	if end > len(candidates) {
		end = len(candidates)
	}
	if opts.Offset > len(candidates) {
		return nil, nil
	}

	out := make([]storage.Scored, 0, end-opts.Offset)
	for _, c := range candidates[opts.Offset:end] {
		mem, err := s.Get(ctx, c.id, false)
		if err != nil {
			continue
		}
		out = append(out, storage.Scored{Memory: mem, Score: c.score})
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sanitiseFTSQuery converts a free-form user query into a safe FTS5 MATCH
// expression. It strips FTS5-special characters, removes common stop words,
// and uses prefix matching (term*) for better recall.
//
// Example: "What is the deploy pipeline?" -> "deploy* OR pipeline*"
func sanitiseFTSQuery(query string) string {
	replacer := strings.NewReplacer(
		`"`, ` `, `'`, ` `, `(`, ` `, `)`, ` `, `*`, ` `, `-`, ` `, `^`, ` `, `?`, ` `, `:`, ` `,
	)
	cleaned := replacer.Replace(query)
	words := strings.Fields(strings.ToLower(cleaned))

	stopWords := map[string]bool{
		"a": true, "an": true, "the": true,
		"is": true, "are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
		"have": true, "has": true, "had": true,
		"do": true, "does": true, "did": true,
		"will": true, "would": true, "could": true, "should": true,
		"may": true, "might": true, "shall": true, "can": true,
		"to": true, "of": true, "in": true, "on": true, "at": true,
		"by": true, "for": true, "with": true, "from": true, "as": true,
		"about": true, "into": true, "through": true, "during": true,
		"before": true, "after": true, "above": true, "below": true,
		"between": true, "out": true, "off": true, "over": true, "under": true,
		"what": true, "how": true, "when": true, "where": true, "why": true,
		"who": true, "which": true,
		"this": true, "that": true, "these": true, "those": true,
		"i": true, "you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
		"and": true, "or": true, "but": true, "if": true, "not": true,
		"s": true, "t": true,
	}

	var terms []string
	for _, w := range words {
		if !stopWords[w] && len(w) >= 2 {
			terms = append(terms, w+"*")
		}
	}
	if len(terms) == 0 {
		return strings.ToLower(strings.TrimSpace(cleaned))
	}
	return strings.Join(terms, " OR ")
}
