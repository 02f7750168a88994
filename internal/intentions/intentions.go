// Package intentions implements prospective-memory triggers: set/check/
// update/list operations, and evaluation of active intentions' triggers on
// every search and on a periodic tick (spec §4.7).
package intentions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// Manager wraps an IntentionStore with the trigger-evaluation logic spec
// §4.7 describes. It holds no lock of its own, and the engine calls it
// without holding its own lock, same as internal/retrieval and internal/tagging.
//
// Event triggers need to observe the cognitive events the rest of the
// engine publishes, so Manager subscribes to the Broadcaster itself
// (events.Sink's narrow Publish-only interface has no Subscribe) and drains
// whatever has accumulated on its channel at the start of every Check —
// this gives event triggers a "since the last check" window without the
// caller having to thread recent events through by hand.
type Manager struct {
	store storage.IntentionStore
	feed  <-chan types.Event
	stop  func()
}

// New builds a Manager and subscribes it to broadcaster for event triggers.
// Call Close when the engine shuts down to release the subscription.
func New(store storage.IntentionStore, broadcaster *events.Broadcaster) *Manager {
	feed, stop := broadcaster.Subscribe()
	return &Manager{store: store, feed: feed, stop: stop}
}

// Close releases the Manager's event subscription.
func (m *Manager) Close() {
	if m.stop != nil {
		m.stop()
	}
}

// Context is the ambient state a trigger check is evaluated against: the
// current call's tags/project, consulted by a context trigger.
type Context struct {
	Tags    []string
	Project string
}

// Set creates a new active Intention.
func (m *Manager) Set(ctx context.Context, description string, trigger types.IntentionTrigger, priority int, recurring bool, now time.Time) (*types.Intention, error) {
	if description == "" {
		return nil, verrors.New(verrors.KindInvalidInput, "an intention requires a description")
	}
	if !isValidTrigger(trigger) {
		return nil, verrors.New(verrors.KindInvalidInput, "malformed intention trigger")
	}

	in := types.Intention{
		ID:          uuid.NewString(),
		Description: description,
		Trigger:     trigger,
		Priority:    priority,
		Status:      types.IntentionActive,
		Recurring:   recurring,
		CreatedAt:   now,
	}
	if err := m.store.CreateIntention(ctx, in); err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "creating intention")
	}
	return &in, nil
}

// Update changes an intention's status (e.g. manual snooze/cancel).
func (m *Manager) Update(ctx context.Context, id string, status types.IntentionStatus, now time.Time) error {
	var fulfilledAt time.Time
	if status == types.IntentionFulfilled {
		fulfilledAt = now
	}
	if err := m.store.UpdateIntentionStatus(ctx, id, status, fulfilledAt); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "updating intention status")
	}
	return nil
}

// List returns intentions in the given status (empty status lists every
// status the store recognizes as active for operator visibility).
func (m *Manager) List(ctx context.Context, status types.IntentionStatus) ([]types.Intention, error) {
	list, err := m.store.ListIntentions(ctx, status)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing intentions")
	}
	return list, nil
}

// Check evaluates every active intention's trigger against evalCtx and
// fires the ones that match: a matched intention is surfaced in the
// returned slice and marked fulfilled (unless Recurring), per spec §4.7.
// The engine calls this on every search and on each periodic tick.
func (m *Manager) Check(ctx context.Context, evalCtx Context, now time.Time) ([]types.Intention, error) {
	recent := m.drainFeed()

	active, err := m.store.ListIntentions(ctx, types.IntentionActive)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing active intentions")
	}

	var fired []types.Intention
	for _, in := range active {
		if !matches(in.Trigger, evalCtx, recent, now) {
			continue
		}
		fired = append(fired, in)

		if in.Recurring {
			continue
		}
		if err := m.store.UpdateIntentionStatus(ctx, in.ID, types.IntentionFulfilled, now); err != nil {
			return fired, verrors.Wrap(verrors.KindStorageError, err, "marking intention fulfilled")
		}
	}
	return fired, nil
}

// drainFeed non-blockingly collects every event buffered on the
// subscription channel since the last call.
func (m *Manager) drainFeed() []types.Event {
	var recent []types.Event
	for {
		select {
		case e := <-m.feed:
			recent = append(recent, e)
		default:
			return recent
		}
	}
}

func isValidTrigger(t types.IntentionTrigger) bool {
	switch t.Kind {
	case types.TriggerTime:
		return !t.At.IsZero()
	case types.TriggerContext:
		return len(t.TagPattern) > 0 || t.Project != ""
	case types.TriggerEvent:
		return t.EventPredicate != ""
	default:
		return false
	}
}

func matches(t types.IntentionTrigger, evalCtx Context, recent []types.Event, now time.Time) bool {
	switch t.Kind {
	case types.TriggerTime:
		return !now.Before(t.At)
	case types.TriggerContext:
		return contextMatches(t, evalCtx)
	case types.TriggerEvent:
		return eventMatches(t, recent)
	default:
		return false
	}
}

func contextMatches(t types.IntentionTrigger, evalCtx Context) bool {
	if t.Project != "" && t.Project == evalCtx.Project {
		return true
	}
	if len(t.TagPattern) == 0 {
		return false
	}
	want := make(map[string]bool, len(t.TagPattern))
	for _, tag := range t.TagPattern {
		want[tag] = true
	}
	for _, tag := range evalCtx.Tags {
		if want[tag] {
			return true
		}
	}
	return false
}

func eventMatches(t types.IntentionTrigger, recent []types.Event) bool {
	for _, e := range recent {
		if t.EventPredicate == "*" || t.EventPredicate == string(e.Variant) {
			return true
		}
	}
	return false
}
