package dream

import (
	"math"
	"strings"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// causalCuePhrases heuristically mark a causal_chain connection (spec §4.6
// phase 2). Spec names the heuristic by example phrase, not by algorithm;
// a simple substring scan over both memories' content is the natural
// reading of "cue-phrase heuristic matches".
var causalCuePhrases = []string{"because", "therefore", "led to"}

// pair is a candidate Connection discovered during cross-reference, carrying
// enough context for strengthen to compute its signal strength.
type pair struct {
	a, b        *types.Memory
	connType    types.ConnectionType
	signal      float64
	coActivated bool
}

// crossReference computes pairwise cosine similarity within the replay set
// and classifies a Connection type for every pair that clears one of the
// five classification rules (spec §4.6 phase 2). A pair may match more than
// one rule; only the first rule matched in classify's fixed priority order is
// kept per pair, since a single Connection edge carries one Type.
func (c *Cycle) crossReference(replayed []*types.Memory, now time.Time) []pair {
	var pairs []pair
	for i := 0; i < len(replayed); i++ {
		for j := i + 1; j < len(replayed); j++ {
			a, b := replayed[i], replayed[j]
			cos := cosineSimilarity(a.Embedding, b.Embedding)
			sharedTags := sharedTagCount(a.Tags, b.Tags)

			best, ok := classify(a, b, cos, sharedTags, now)
			if !ok {
				continue
			}
			best.coActivated = true // both ends were replayed in this cycle
			pairs = append(pairs, best)
		}
	}
	return pairs
}

// classify picks the single best-matching Connection type for a pair,
// preferring the rule with the highest inherent confidence when more than
// one applies: semantic > causal_chain > shared_concept > temporal >
// complementary.
func classify(a, b *types.Memory, cos float64, sharedTags int, now time.Time) (pair, bool) {
	if cos >= semanticCosineFloor {
		return pair{a: a, b: b, connType: types.ConnSemantic, signal: cos}, true
	}
	if isCausalChain(a.Content, b.Content) {
		return pair{a: a, b: b, connType: types.ConnCausalChain, signal: 0.75}, true
	}
	if sharedTags >= sharedConceptTagFloor {
		return pair{a: a, b: b, connType: types.ConnSharedConcept, signal: float64(sharedTags) / float64(len(a.Tags)+len(b.Tags)-sharedTags)}, true
	}
	if math.Abs(a.CreatedAt.Sub(b.CreatedAt).Hours()) <= temporalWindowHours && cos >= temporalCosineFloor {
		return pair{a: a, b: b, connType: types.ConnTemporal, signal: cos}, true
	}
	if cos >= complementaryCosineLow && cos < complementaryCosineHigh && a.Type != b.Type {
		return pair{a: a, b: b, connType: types.ConnComplementary, signal: cos}, true
	}
	return pair{}, false
}

func isCausalChain(a, b string) bool {
	combined := strings.ToLower(a + " " + b)
	for _, cue := range causalCuePhrases {
		if strings.Contains(combined, cue) {
			return true
		}
	}
	return false
}

func sharedTagCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	count := 0
	for _, t := range b {
		if set[t] {
			count++
		}
	}
	return count
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
