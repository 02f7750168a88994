package tagging

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

func newTestTagger(t *testing.T, deterministic bool) (*Tagger, storage.Store, *scheduler.Scheduler) {
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
		CaptureBackwardHours: 9.0,
		CaptureForwardHours:  2.0,
		DeterministicMode:    deterministic,
	}
	sched := scheduler.New(cfg)
	tagger := New(store, sched, events.NewBroadcaster(), cfg)
	return tagger, store, sched
}

func seedTaggedMemory(t *testing.T, store storage.Store, sched *scheduler.Scheduler, id string, tagCreatedAt time.Time, strength float64, decay types.DecayFn) {
	t.Helper()
	ctx := context.Background()
	mem := &types.Memory{ID: id, Content: "memory " + id, Type: types.NodeNote, CreatedAt: tagCreatedAt}
	sched.Initialize(mem, tagCreatedAt)
	if err := store.Store(ctx, mem); err != nil {
		t.Fatalf("storing seed memory: %v", err)
	}
	tag := types.SynapticTag{
		MemoryID: id, CreatedAt: tagCreatedAt, TagStrength: strength,
		DecayFunction: decay, ExpiresAt: tagCreatedAt.Add(9 * time.Hour),
	}
	if err := store.CreateSynapticTag(ctx, tag); err != nil {
		t.Fatalf("creating synaptic tag: %v", err)
	}
}

func TestSweep_DeterministicModeCapturesAboveThreshold(t *testing.T) {
	tagger, store, sched := newTestTagger(t, true)
	now := time.Now()
	seedTaggedMemory(t, store, sched, "near", now, 1.0, types.DecayExp) // p ~= 1.0, well above 0.5
	seedTaggedMemory(t, store, sched, "far", now.Add(-8*time.Hour), 1.0, types.DecayExp)

	res, err := tagger.Sweep(context.Background(), types.EventUserFlag, "evt-1", now)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if res.Evaluated != 2 {
		t.Fatalf("expected 2 tags evaluated, got %d", res.Evaluated)
	}
	found := false
	for _, id := range res.Captured {
		if id == "near" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the near tag to be captured deterministically, got %v", res.Captured)
	}
}

func TestSweep_ConsumesEveryEvaluatedTag(t *testing.T) {
	tagger, store, sched := newTestTagger(t, true)
	now := time.Now()
	seedTaggedMemory(t, store, sched, "m1", now, 1.0, types.DecayExp)

	if _, err := tagger.Sweep(context.Background(), types.EventUserFlag, "evt-1", now); err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	remaining, err := store.ActiveTagsInWindow(context.Background(), now.Add(-24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ActiveTagsInWindow returned error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected every evaluated tag to be consumed, got %d remaining", len(remaining))
	}
}

func TestSweep_RejectsUnknownEventKind(t *testing.T) {
	tagger, _, _ := newTestTagger(t, true)
	_, err := tagger.Sweep(context.Background(), types.ImportanceEventKind("not-a-kind"), "evt-1", time.Now())
	if err == nil {
		t.Error("expected an error for an unrecognized importance event kind")
	}
}

func TestSweep_LinksCapturedMemoriesIntoACluster(t *testing.T) {
	tagger, store, sched := newTestTagger(t, true)
	now := time.Now()
	seedTaggedMemory(t, store, sched, "m1", now, 1.0, types.DecayExp)
	seedTaggedMemory(t, store, sched, "m2", now, 1.0, types.DecayExp)

	res, err := tagger.Sweep(context.Background(), types.EventUserFlag, "evt-1", now)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if len(res.Captured) != 2 {
		t.Fatalf("expected both tags captured deterministically, got %v", res.Captured)
	}

	conn, err := store.GetConnection(context.Background(), "m1", "m2")
	if err != nil {
		t.Fatalf("GetConnection returned error: %v", err)
	}
	if conn == nil || conn.Type != types.ConnImportanceCluster {
		t.Errorf("expected an importance_cluster connection between m1 and m2, got %+v", conn)
	}
}

func TestRecoverUnswept_ConsumesOrphanedTags(t *testing.T) {
	tagger, store, sched := newTestTagger(t, true)
	longAgo := time.Now().Add(-72 * time.Hour)
	seedTaggedMemory(t, store, sched, "orphan", longAgo, 1.0, types.DecayExp)

	recovered, err := tagger.RecoverUnswept(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RecoverUnswept returned error: %v", err)
	}
	if recovered == 0 {
		t.Error("expected at least one memory to be recovered before being consumed")
	}

	remaining, err := store.UnsweptTags(context.Background())
	if err != nil {
		t.Fatalf("UnsweptTags returned error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no unswept tags after recovery, got %d", len(remaining))
	}
}
