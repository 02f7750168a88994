// Package engine composes the cognitive modules (Store, Scheduler,
// IngestGate, RetrievalPipeline, SynapticTagging, DreamCycle, Intentions,
// EventSink) behind the narrow tool-surface entry points (spec §6).
package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

// boundsChecker tracks graph-traversal progress against storage.GraphBounds
// to prevent combinatorial explosion in explore()'s bridges/associations
// walks. Grounded on the teacher's GraphBoundsChecker (node/depth/timeout/
// context checks), trimmed to the fields our GraphBounds models — no edge
// cap, since Connection-edge lookups are cheap compared to the teacher's
// relationship-table joins.
type boundsChecker struct {
	bounds       storage.GraphBounds
	nodesVisited int
	startTime    time.Time
}

func newBoundsChecker(bounds storage.GraphBounds) *boundsChecker {
	bounds.Normalize()
	return &boundsChecker{bounds: bounds, startTime: time.Now()}
}

// canContinue reports whether traversal may visit another node at depth.
func (b *boundsChecker) canContinue(ctx context.Context, depth int) error {
	select {
	case <-ctx.Done():
		return verrors.Wrap(verrors.KindTimeout, ctx.Err(), "graph traversal cancelled")
	default:
	}
	if b.nodesVisited >= b.bounds.MaxNodes {
		return verrors.New(verrors.KindInvariantViolation, "graph traversal exceeded max nodes")
	}
	if depth > b.bounds.MaxHops {
		return verrors.New(verrors.KindInvariantViolation, "graph traversal exceeded max hops")
	}
	if time.Since(b.startTime) >= b.bounds.Timeout {
		return verrors.New(verrors.KindTimeout, "graph traversal exceeded its time bound")
	}
	return nil
}

func (b *boundsChecker) recordNode() { b.nodesVisited++ }
