package intentions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/storage/sqlite"
	"github.com/zeroaltitude/vestige/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *events.Broadcaster) {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "vestige.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	broadcaster := events.NewBroadcaster()
	mgr := New(store, broadcaster)
	t.Cleanup(mgr.Close)
	return mgr, broadcaster
}

func TestSet_RejectsEmptyDescription(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.Set(context.Background(), "", types.IntentionTrigger{Kind: types.TriggerTime, At: time.Now()}, 0, false, time.Now())
	if err == nil {
		t.Error("expected an error for an empty description")
	}
}

func TestSet_RejectsMalformedTrigger(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.Set(context.Background(), "remind me", types.IntentionTrigger{Kind: types.TriggerTime}, 0, false, time.Now())
	if err == nil {
		t.Error("expected an error for a time trigger with a zero At")
	}
}

func TestCheck_FiresTimeTriggerOncePastDue(t *testing.T) {
	mgr, _ := newTestManager(t)
	now := time.Now()
	_, err := mgr.Set(context.Background(), "check in", types.IntentionTrigger{Kind: types.TriggerTime, At: now.Add(-time.Minute)}, 0, false, now)
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	fired, err := mgr.Check(context.Background(), Context{}, now)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("expected 1 fired intention, got %d", len(fired))
	}

	list, err := mgr.List(context.Background(), types.IntentionFulfilled)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected the non-recurring intention to be marked fulfilled, got %d fulfilled", len(list))
	}
}

func TestCheck_RecurringIntentionStaysActiveAfterFiring(t *testing.T) {
	mgr, _ := newTestManager(t)
	now := time.Now()
	_, err := mgr.Set(context.Background(), "daily check-in", types.IntentionTrigger{Kind: types.TriggerTime, At: now.Add(-time.Minute)}, 0, true, now)
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if _, err := mgr.Check(context.Background(), Context{}, now); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	active, err := mgr.List(context.Background(), types.IntentionActive)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected the recurring intention to remain active, got %d active", len(active))
	}
}

func TestCheck_ContextTriggerMatchesOnSharedTag(t *testing.T) {
	mgr, _ := newTestManager(t)
	now := time.Now()
	trigger := types.IntentionTrigger{Kind: types.TriggerContext, TagPattern: []string{"billing"}}
	if _, err := mgr.Set(context.Background(), "billing follow-up", trigger, 0, false, now); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	noMatch, err := mgr.Check(context.Background(), Context{Tags: []string{"unrelated"}}, now)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(noMatch) != 0 {
		t.Errorf("expected no match for an unrelated tag, got %d", len(noMatch))
	}

	match, err := mgr.Check(context.Background(), Context{Tags: []string{"billing"}}, now)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(match) != 1 {
		t.Errorf("expected a match once the billing tag is present, got %d", len(match))
	}
}

func TestCheck_EventTriggerFiresOnPublishedEvent(t *testing.T) {
	mgr, broadcaster := newTestManager(t)
	now := time.Now()
	trigger := types.IntentionTrigger{Kind: types.TriggerEvent, EventPredicate: string(types.EvDreamCompleted)}
	if _, err := mgr.Set(context.Background(), "notice dream completion", trigger, 0, false, now); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	broadcaster.Publish(types.Event{Variant: types.EvDreamCompleted, Timestamp: now})

	fired, err := mgr.Check(context.Background(), Context{}, now)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(fired) != 1 {
		t.Errorf("expected the event trigger to fire once its predicate event is published, got %d", len(fired))
	}
}

func TestCheck_EventTriggerDoesNotFireTwiceOnTheSameEvent(t *testing.T) {
	mgr, broadcaster := newTestManager(t)
	now := time.Now()
	trigger := types.IntentionTrigger{Kind: types.TriggerEvent, EventPredicate: "*"}
	if _, err := mgr.Set(context.Background(), "notice anything", trigger, 0, false, now); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	broadcaster.Publish(types.Event{Variant: types.EvHeartbeat, Timestamp: now})
	if _, err := mgr.Check(context.Background(), Context{}, now); err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}

	fired, err := mgr.Check(context.Background(), Context{}, now)
	if err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}
	if len(fired) != 0 {
		t.Errorf("expected no refire on the second check with no new events, got %d", len(fired))
	}
}
