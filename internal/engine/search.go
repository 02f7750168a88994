package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/intentions"
	"github.com/zeroaltitude/vestige/internal/retrieval"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// Search runs the seven-stage retrieval pipeline and, as a side effect of
// every search (spec §4.7), evaluates context-triggered intentions against
// the query's own tags/project so a caller's search can surface "remind me
// when I'm back on project X" without a separate tool call.
func (e *Engine) Search(ctx context.Context, opts retrieval.Options) (retrieval.Result, []types.Intention, error) {
	if err := e.checkStarted(); err != nil {
		return retrieval.Result{}, nil, err
	}

	result, err := e.pipeline.Search(ctx, opts, time.Now())
	if err != nil {
		return retrieval.Result{}, nil, err
	}

	fired, _ := e.intentions.Check(ctx, intentions.Context{Tags: opts.ContextTags, Project: opts.Project}, time.Now())
	return result, fired, nil
}
