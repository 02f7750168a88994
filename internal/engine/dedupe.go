package engine

import (
	"context"
	"math"

	"github.com/zeroaltitude/vestige/internal/verrors"
)

// duplicateCosineFloor is the near-duplicate threshold (spec §6
// find_duplicates tool row: "cosine >= 0.92").
const duplicateCosineFloor = 0.92

// DuplicateCluster is one connected component of near-duplicate memories.
type DuplicateCluster struct {
	MemoryIDs []string
}

// FindDuplicates scans every active memory's embedding pairwise and groups
// ones whose cosine similarity clears duplicateCosineFloor into connected
// components (a transitively-linked chain of near-duplicates forms one
// cluster even if its two ends aren't directly similar to each other).
func (e *Engine) FindDuplicates(ctx context.Context) ([]DuplicateCluster, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}

	memories, err := e.store.AllActive(ctx)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing active memories")
	}

	uf := newUnionFind(len(memories))
	for i := 0; i < len(memories); i++ {
		for j := i + 1; j < len(memories); j++ {
			if dedupeCosine(memories[i].Embedding, memories[j].Embedding) >= duplicateCosineFloor {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]string)
	for i, mem := range memories {
		root := uf.find(i)
		groups[root] = append(groups[root], mem.ID)
	}

	var clusters []DuplicateCluster
	for _, ids := range groups {
		if len(ids) > 1 {
			clusters = append(clusters, DuplicateCluster{MemoryIDs: ids})
		}
	}
	return clusters, nil
}

func dedupeCosine(a, b []float32) float64 {
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

// unionFind is a plain disjoint-set over a fixed [0,n) index range, used to
// collapse pairwise near-duplicate links into connected components.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
