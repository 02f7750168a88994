package scheduler

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// fuzzRange bounds the scatter fuzz applies to a freshly computed stability,
// per spec §4.2 ("small ±5% scatter").
const fuzzRange = 0.05

// fuzz applies a deterministic ±5% scatter to stability, seeded from
// (memoryID, at) so that repeated ingests of near-identical content at the
// same instant reproduce the same scattered value rather than drifting
// randomly run to run.
func fuzz(stability float64, memoryID string, at time.Time) float64 {
	if stability <= 0 {
		return stability
	}
	seed := seedFor(memoryID, at)
	r := rand.New(rand.NewSource(seed))
	scatter := 1 + (r.Float64()*2-1)*fuzzRange
	return stability * scatter
}

func seedFor(memoryID string, at time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s|%d", memoryID, at.UnixNano())))
	return int64(h.Sum64())
}
