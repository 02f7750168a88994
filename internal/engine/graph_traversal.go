package engine

import (
	"context"
	"sort"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

// graphWalker runs bounded BFS/DFS over the Connection-edge graph, backing
// explore()'s associations and bridges actions (chain instead walks
// supersede back-links via storage.MemoryStore.GetEvolutionChain directly).
// Grounded on the teacher's GraphTraversal, with getNeighbors rebased on
// our Connection edges instead of the teacher's entity-relationship join.
type graphWalker struct {
	store storage.Store
}

func newGraphWalker(store storage.Store) *graphWalker {
	return &graphWalker{store: store}
}

// edgeRef is a neighbor memory ID paired with the edge weight that reached it.
type edgeRef struct {
	id     string
	weight float64
}

// neighbors returns the memory IDs directly connected to memoryID via a
// Connection edge.
func (g *graphWalker) neighbors(ctx context.Context, memoryID string) ([]edgeRef, error) {
	edges, err := g.store.Neighbors(ctx, memoryID)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing neighbors")
	}
	out := make([]edgeRef, 0, len(edges))
	for _, e := range edges {
		other := e.MemoryA
		if other == memoryID {
			other = e.MemoryB
		}
		out = append(out, edgeRef{id: other, weight: e.Weight})
	}
	return out, nil
}

// associations returns memoryID's direct Connection neighbors, strongest
// edge first, capped at limit.
func (g *graphWalker) associations(ctx context.Context, memoryID string, limit int) ([]storage.TraversalResult, error) {
	edges, err := g.neighbors(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].weight > edges[j].weight })
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	results := make([]storage.TraversalResult, len(edges))
	for i, e := range edges {
		mem, err := g.store.Get(ctx, e.id, false)
		if err != nil {
			continue
		}
		results[i] = storage.TraversalResult{Memory: mem, HopDistance: 1, Activation: e.weight, Path: []string{memoryID, e.id}}
	}
	return results, nil
}

// bridges finds the shortest path connecting fromID to toID through the
// Connection graph, bounded by bounds. The returned TraversalResults are
// the intermediate memories — the "bridges" — excluding the endpoints.
func (g *graphWalker) bridges(ctx context.Context, fromID, toID string, bounds storage.GraphBounds) ([]storage.TraversalResult, error) {
	bounds.Normalize()
	checker := newBoundsChecker(bounds)

	type queueItem struct {
		id    string
		depth int
		path  []string
	}
	queue := []queueItem{{id: fromID, depth: 0, path: []string{fromID}}}
	visited := map[string]bool{fromID: true}

	var found *queueItem
	for len(queue) > 0 && found == nil {
		cur := queue[0]
		queue = queue[1:]

		if err := checker.canContinue(ctx, cur.depth); err != nil {
			break
		}
		checker.recordNode()

		edges, err := g.neighbors(ctx, cur.id)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if visited[e.id] {
				continue
			}
			visited[e.id] = true
			next := queueItem{id: e.id, depth: cur.depth + 1, path: append(append([]string{}, cur.path...), e.id)}
			if e.id == toID {
				found = &next
				break
			}
			queue = append(queue, next)
		}
	}

	if found == nil {
		return nil, nil
	}

	interior := found.path[1 : len(found.path)-1]
	results := make([]storage.TraversalResult, 0, len(interior))
	for i, id := range interior {
		mem, err := g.store.Get(ctx, id, false)
		if err != nil {
			continue
		}
		results = append(results, storage.TraversalResult{
			Memory: mem, HopDistance: i + 1,
			Activation: 1.0 / float64(len(found.path)),
			Path:       found.path,
		})
	}
	return results, nil
}
