package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/intentions"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// SetIntention creates a new prospective-memory trigger.
func (e *Engine) SetIntention(ctx context.Context, description string, trigger types.IntentionTrigger, priority int, recurring bool) (*types.Intention, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}
	return e.intentions.Set(ctx, description, trigger, priority, recurring, time.Now())
}

// UpdateIntention changes an intention's status (manual snooze/cancel/fulfil).
func (e *Engine) UpdateIntention(ctx context.Context, id string, status types.IntentionStatus) error {
	if err := e.checkStarted(); err != nil {
		return err
	}
	return e.intentions.Update(ctx, id, status, time.Now())
}

// ListIntentions lists intentions in the given status (empty lists all
// active ones).
func (e *Engine) ListIntentions(ctx context.Context, status types.IntentionStatus) ([]types.Intention, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}
	return e.intentions.List(ctx, status)
}

// CheckIntentions evaluates triggers against an explicit caller-supplied
// context on demand, independent of the search side effect and the
// background tick.
func (e *Engine) CheckIntentions(ctx context.Context, tags []string, project string) ([]types.Intention, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}
	return e.intentions.Check(ctx, intentions.Context{Tags: tags, Project: project}, time.Now())
}
