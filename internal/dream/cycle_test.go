package dream

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/storage/sqlite"
	"github.com/zeroaltitude/vestige/pkg/types"
)

func newTestCycle(t *testing.T) (*Cycle, storage.Store, *scheduler.Scheduler) {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "vestige.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		FSRSWeights: config.DefaultFSRSWeights,
		RetentionStateThresholds: config.RetentionStateThresholds{
			Silent: 0.10, Dormant: 0.40, Active: 0.70,
		},
	}
	sched := scheduler.New(cfg)
	return New(store, sched, events.NewBroadcaster()), store, sched
}

func seedMemoryWithEmbedding(t *testing.T, store storage.Store, sched *scheduler.Scheduler, id string, tags []string, typ types.NodeType, embedding []float32, now time.Time) *types.Memory {
	t.Helper()
	mem := &types.Memory{ID: id, Content: "content for " + id, Type: typ, Tags: tags, Embedding: embedding, CreatedAt: now}
	sched.Initialize(mem, now)
	if err := store.Store(context.Background(), mem); err != nil {
		t.Fatalf("storing seed memory %s: %v", id, err)
	}
	return mem
}

func TestRun_RejectsConcurrentInvocation(t *testing.T) {
	cycle, _, _ := newTestCycle(t)
	cycle.running.Store(true)
	defer cycle.running.Store(false)

	_, err := cycle.Run(context.Background(), time.Now())
	if err == nil {
		t.Error("expected an error when a dream cycle is already running")
	}
}

func TestRun_DiscoversSemanticConnectionBetweenSimilarMemories(t *testing.T) {
	cycle, store, sched := newTestCycle(t)
	now := time.Now()
	vecA := []float32{1, 0, 0}
	vecB := []float32{0.99, 0.01, 0}
	seedMemoryWithEmbedding(t, store, sched, "m1", nil, types.NodeNote, vecA, now)
	seedMemoryWithEmbedding(t, store, sched, "m2", nil, types.NodeNote, vecB, now)

	report, err := cycle.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.MemoriesReplayed != 2 {
		t.Errorf("expected 2 memories replayed, got %d", report.MemoriesReplayed)
	}
	if report.ConnectionsFound == 0 {
		t.Fatal("expected at least one connection to be discovered")
	}

	conn, err := store.GetConnection(context.Background(), "m1", "m2")
	if err != nil {
		t.Fatalf("GetConnection returned error: %v", err)
	}
	if conn.Type != types.ConnSemantic {
		t.Errorf("expected a semantic connection, got %s", conn.Type)
	}
}

func TestRun_PrunesWeakConnections(t *testing.T) {
	cycle, store, _ := newTestCycle(t)
	now := time.Now()
	weak := types.Connection{MemoryA: "x", MemoryB: "y", Weight: 0.05, DiscoveredAt: now, Type: types.ConnSemantic}
	if err := store.UpsertConnection(context.Background(), weak); err != nil {
		t.Fatalf("seeding weak connection: %v", err)
	}

	report, err := cycle.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.ConnectionsPruned == 0 {
		t.Error("expected the weak connection to be pruned")
	}
	if _, err := store.GetConnection(context.Background(), "x", "y"); err == nil {
		t.Error("expected the weak connection to no longer exist after pruning")
	}
}

func TestRun_SynthesizesInsightFromMutuallyConnectedCluster(t *testing.T) {
	cycle, store, sched := newTestCycle(t)
	now := time.Now()
	vec := []float32{1, 0, 0}
	for _, id := range []string{"c1", "c2", "c3"} {
		seedMemoryWithEmbedding(t, store, sched, id, []string{"shared"}, types.NodeNote, vec, now)
	}

	report, err := cycle.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.InsightsGenerated == 0 {
		t.Error("expected an insight to be synthesized from the 3-memory cluster")
	}
}

func TestRun_ResetsEngineStateAfterCompleting(t *testing.T) {
	cycle, store, _ := newTestCycle(t)
	now := time.Now()
	if err := store.SaveEngineState(context.Background(), storage.EngineState{WritesSinceLastDream: 50}); err != nil {
		t.Fatalf("seeding engine state: %v", err)
	}

	if _, err := cycle.Run(context.Background(), now); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	state, err := store.LoadEngineState(context.Background())
	if err != nil {
		t.Fatalf("LoadEngineState returned error: %v", err)
	}
	if state.WritesSinceLastDream != 0 {
		t.Errorf("expected write counter reset to 0, got %d", state.WritesSinceLastDream)
	}
	if !state.LastDreamAt.Equal(now) {
		t.Errorf("expected last_dream_at updated to %v, got %v", now, state.LastDreamAt)
	}
}

func TestShouldTrigger_FiresOnWriteThreshold(t *testing.T) {
	state := storage.EngineState{WritesSinceLastDream: 50}
	if !ShouldTrigger(state, 24*time.Hour, 50, time.Now()) {
		t.Error("expected a trigger once the write threshold is reached")
	}
}

func TestShouldTrigger_FiresOnMinInterval(t *testing.T) {
	state := storage.EngineState{WritesSinceLastDream: 0, LastDreamAt: time.Now().Add(-25 * time.Hour)}
	if !ShouldTrigger(state, 24*time.Hour, 50, time.Now()) {
		t.Error("expected a trigger once the minimum interval has elapsed")
	}
}

func TestShouldTrigger_DoesNotFireBeforeEitherThreshold(t *testing.T) {
	state := storage.EngineState{WritesSinceLastDream: 3, LastDreamAt: time.Now().Add(-1 * time.Hour)}
	if ShouldTrigger(state, 24*time.Hour, 50, time.Now()) {
		t.Error("expected no trigger before either threshold is reached")
	}
}
