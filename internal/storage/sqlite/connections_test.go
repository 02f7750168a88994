package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

func seedPair(t *testing.T, s *Store, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, sampleMemory(a)))
	require.NoError(t, s.Store(ctx, sampleMemory(b)))
}

func TestUpsertConnection_CanonicalizesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPair(t, s, "conn-a", "conn-b")

	require.NoError(t, s.UpsertConnection(ctx, types.Connection{
		MemoryA: "conn-b", MemoryB: "conn-a", Weight: 0.6, Type: types.ConnSemantic, DiscoveredAt: time.Now(),
	}))

	got, err := s.GetConnection(ctx, "conn-a", "conn-b")
	require.NoError(t, err)
	assert.Equal(t, "conn-a", got.MemoryA)
	assert.Equal(t, "conn-b", got.MemoryB)
}

func TestUpsertConnection_RejectsSelfLoop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.UpsertConnection(ctx, types.Connection{MemoryA: "x", MemoryB: "x", Weight: 1, DiscoveredAt: time.Now()})
	require.Error(t, err)
	assert.True(t, verrors.IsInvalidInput(err))
}

func TestUpsertConnection_UpdatesWeightOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPair(t, s, "conn-c", "conn-d")

	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "conn-c", MemoryB: "conn-d", Weight: 0.3, Type: types.ConnTemporal, DiscoveredAt: time.Now()}))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "conn-c", MemoryB: "conn-d", Weight: 0.9, Type: types.ConnCausalChain, DiscoveredAt: time.Now()}))

	got, err := s.GetConnection(ctx, "conn-c", "conn-d")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Weight, 1e-9)
	assert.Equal(t, types.ConnCausalChain, got.Type)
}

func TestGetConnection_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetConnection(context.Background(), "nope-a", "nope-b")
	require.Error(t, err)
	assert.True(t, verrors.IsNotFound(err))
}

func TestNeighbors_ReturnsEitherSideOfEdge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPair(t, s, "n1", "n2")
	require.NoError(t, s.Store(ctx, sampleMemory("n3")))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "n1", MemoryB: "n2", Weight: 0.5, DiscoveredAt: time.Now()}))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "n3", MemoryB: "n1", Weight: 0.5, DiscoveredAt: time.Now()}))

	neighbors, err := s.Neighbors(ctx, "n1")
	require.NoError(t, err)
	assert.Len(t, neighbors, 2)
}

func TestDecayAllConnections_PrunesBelowThreshold(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPair(t, s, "d1", "d2")
	require.NoError(t, s.Store(ctx, sampleMemory("d3")))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "d1", MemoryB: "d2", Weight: 0.05, DiscoveredAt: time.Now()}))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "d2", MemoryB: "d3", Weight: 0.9, DiscoveredAt: time.Now()}))

	pruned, err := s.DecayAllConnections(ctx, 0.9, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	all, err := s.AllConnections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 0.81, all[0].Weight, 1e-9)
}

func TestDeleteConnectionsFor_RemovesAllEdgesTouchingMemory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPair(t, s, "del1", "del2")
	require.NoError(t, s.Store(ctx, sampleMemory("del3")))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "del1", MemoryB: "del2", Weight: 0.5, DiscoveredAt: time.Now()}))
	require.NoError(t, s.UpsertConnection(ctx, types.Connection{MemoryA: "del2", MemoryB: "del3", Weight: 0.5, DiscoveredAt: time.Now()}))

	require.NoError(t, s.DeleteConnectionsFor(ctx, "del2"))

	all, err := s.AllConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
