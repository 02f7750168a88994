package engine

import (
	"context"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

// ExploreAction selects which of explore()'s three graph views to run
// (spec §6 explore tool row).
type ExploreAction string

const (
	ExploreChain        ExploreAction = "chain"
	ExploreAssociations ExploreAction = "associations"
	ExploreBridges      ExploreAction = "bridges"
)

// Explore answers one of the three explore() views. toID is only consulted
// for ExploreBridges; limit is only consulted for ExploreAssociations.
func (e *Engine) Explore(ctx context.Context, action ExploreAction, fromID, toID string, limit int) ([]storage.TraversalResult, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}

	switch action {
	case ExploreChain:
		chain, err := e.store.GetEvolutionChain(ctx, fromID)
		if err != nil {
			return nil, err
		}
		results := make([]storage.TraversalResult, len(chain))
		for i, mem := range chain {
			results[i] = storage.TraversalResult{Memory: mem, HopDistance: i, Activation: 1.0, Path: []string{fromID}}
		}
		return results, nil

	case ExploreAssociations:
		return e.graphWalker.associations(ctx, fromID, limit)

	case ExploreBridges:
		if toID == "" {
			return nil, verrors.New(verrors.KindInvalidInput, "bridges requires a to_id")
		}
		return e.graphWalker.bridges(ctx, fromID, toID, storage.GraphBounds{})

	default:
		return nil, verrors.New(verrors.KindInvalidInput, "unrecognized explore action")
	}
}
