package dream

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// transfer detects insight candidates: clusters of 3+ mutually connected
// memories that all carry one common tag (spec §4.6 phase 5). Each surfaced Insight is also persisted as its own
// Memory(node_type=concept, tags={"insight", kind}).
func (c *Cycle) transfer(ctx context.Context, replayed []*types.Memory, now time.Time) ([]types.Insight, error) {
	clusters := mutuallyConnectedClusters(ctx, replayed, c.neighborsWithinSet)

	var insights []types.Insight
	for _, cluster := range clusters {
		if len(cluster) < insightMinClusterSize {
			continue
		}
		commonTag, ok := impliedCommonTag(cluster)
		if !ok {
			continue
		}

		kind := classifyInsightKind(cluster, commonTag)
		ids := make([]string, len(cluster))
		for i, m := range cluster {
			ids[i] = m.ID
		}
		sort.Strings(ids)

		insight := types.Insight{
			Kind:        kind,
			MemoryIDs:   ids,
			SummaryText: fmt.Sprintf("%d connected memories all share %q", len(ids), commonTag),
		}
		insights = append(insights, insight)

		if err := c.persistInsight(ctx, insight, now); err != nil {
			return insights, err
		}
	}
	return insights, nil
}

// neighborsWithinSet reports the ids, among candidateIDs, that memoryID has
// a live Connection edge to.
func (c *Cycle) neighborsWithinSet(ctx context.Context, memoryID string, candidateIDs map[string]bool) (map[string]bool, error) {
	edges, err := c.store.Neighbors(ctx, memoryID)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing neighbors for insight clustering")
	}
	out := make(map[string]bool)
	for _, e := range edges {
		other := e.MemoryA
		if other == memoryID {
			other = e.MemoryB
		}
		if candidateIDs[other] {
			out[other] = true
		}
	}
	return out, nil
}

// mutuallyConnectedClusters groups replayed memories into connected
// components over the edges discovered so far this cycle, via a bounded BFS
// over each member's Connection neighbors restricted to the replay set.
func mutuallyConnectedClusters(ctx context.Context, replayed []*types.Memory, neighbors func(context.Context, string, map[string]bool) (map[string]bool, error)) [][]*types.Memory {
	byID := make(map[string]*types.Memory, len(replayed))
	ids := make(map[string]bool, len(replayed))
	for _, m := range replayed {
		byID[m.ID] = m
		ids[m.ID] = true
	}

	visited := make(map[string]bool)
	var clusters [][]*types.Memory
	for _, m := range replayed {
		if visited[m.ID] {
			continue
		}
		component := bfsComponent(ctx, m.ID, ids, visited, neighbors)
		if len(component) == 0 {
			continue
		}
		var members []*types.Memory
		for _, id := range component {
			members = append(members, byID[id])
		}
		clusters = append(clusters, members)
	}
	return clusters
}

func bfsComponent(ctx context.Context, start string, ids map[string]bool, visited map[string]bool, neighbors func(context.Context, string, map[string]bool) (map[string]bool, error)) []string {
	queue := []string{start}
	visited[start] = true
	var component []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		component = append(component, cur)

		next, err := neighbors(ctx, cur, ids)
		if err != nil {
			continue
		}
		for id := range next {
			if !visited[id] {
				visited[id] = true
				queue = append(queue, id)
			}
		}
	}
	return component
}

// impliedCommonTag finds a tag shared by every member of cluster. The
// insight is in the commonality being visible only at the group level, not
// that any individual memory omits the tag.
func impliedCommonTag(cluster []*types.Memory) (string, bool) {
	if len(cluster) == 0 {
		return "", false
	}
	counts := make(map[string]int)
	for _, m := range cluster {
		seen := make(map[string]bool)
		for _, t := range m.Tags {
			if !seen[t] {
				counts[t]++
				seen[t] = true
			}
		}
	}
	for tag, n := range counts {
		if n == len(cluster) {
			return tag, true
		}
	}
	return "", false
}

func classifyInsightKind(cluster []*types.Memory, commonTag string) types.InsightKind {
	nodeTypes := make(map[types.NodeType]bool)
	for _, m := range cluster {
		nodeTypes[m.Type] = true
	}
	switch {
	case len(nodeTypes) == 1:
		return types.InsightGeneralization
	case commonTag == "contradiction":
		return types.InsightContradiction
	default:
		return types.InsightHiddenConnection
	}
}

func (c *Cycle) persistInsight(ctx context.Context, insight types.Insight, now time.Time) error {
	mem := &types.Memory{
		ID:      "insight_" + uuid.NewString(),
		Content: insight.SummaryText,
		Type:    types.NodeConcept,
		Tags:    []string{"insight", string(insight.Kind)},
	}
	c.scheduler.Initialize(mem, now)
	if err := c.store.Store(ctx, mem); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "persisting insight memory")
	}
	for _, id := range insight.MemoryIDs {
		a, b := types.CanonicalPair(mem.ID, id)
		conn := types.Connection{MemoryA: a, MemoryB: b, Weight: 1.0, DiscoveredAt: now, Type: types.ConnSharedConcept}
		if err := c.store.UpsertConnection(ctx, conn); err != nil {
			return verrors.Wrap(verrors.KindStorageError, err, "linking insight to its source memories")
		}
	}
	return nil
}
