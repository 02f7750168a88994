package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zeroaltitude/vestige/internal/tagging"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// Importance triggers an explicit importance event's capture sweep (spec
// §4.5 paragraph 2 onward). memoryID is accepted for the caller's own
// bookkeeping and is folded into the generated event id, but the sweep
// itself evaluates every active tag in the configured window rather than
// being scoped to a single memory — an importance event is a signal about
// what just happened, not a request to re-tag one record.
func (e *Engine) Importance(ctx context.Context, memoryID string, eventKind types.ImportanceEventKind) (tagging.SweepResult, error) {
	if err := e.checkStarted(); err != nil {
		return tagging.SweepResult{}, err
	}

	eventID := uuid.NewString()
	if memoryID != "" {
		eventID = memoryID + ":" + eventID
	}
	return e.tagger.Sweep(ctx, eventKind, eventID, time.Now())
}
