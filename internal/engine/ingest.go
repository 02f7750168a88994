package engine

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/internal/ingestgate"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

const maxBatchItems = 20

// IngestInput is one ingest() tool call's arguments (spec §6 ingest tool row).
type IngestInput struct {
	Content  string
	Tags     []string
	NodeType types.NodeType
	Source   string
}

// IngestResult is what ingest() returns: the gating decision plus the
// memory id it created, reinforced, updated, or superseded.
type IngestResult struct {
	Decision types.GateDecision
	MemoryID string
	Channels types.ImportanceChannels
}

// Ingest runs a single item through the full prediction-error gating
// pipeline (spec §4.3). Source defaults to the detected calling agent when
// the caller leaves it blank, so every memory's provenance is attributable
// even for tool callers that don't set one explicitly.
func (e *Engine) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	if err := e.checkStarted(); err != nil {
		return IngestResult{}, err
	}
	if in.Source == "" {
		in.Source = defaultSource()
	}

	item := ingestgate.Item{Content: in.Content, Tags: in.Tags, NodeType: in.NodeType, Source: in.Source}
	result, err := e.gate.Decide(ctx, item, time.Now())
	if err != nil {
		return IngestResult{}, err
	}

	e.noteWrite(ctx)
	return IngestResult{Decision: result.Decision, MemoryID: result.MemoryID, Channels: result.Channels}, nil
}

// IngestBatch runs up to maxBatchItems items through the gate sequentially,
// so each item's writes are visible to the next item's candidate lookup
// within the same call (spec §4.3 "Batch mode").
func (e *Engine) IngestBatch(ctx context.Context, items []IngestInput) ([]IngestResult, error) {
	if err := e.checkStarted(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, verrors.New(verrors.KindInvalidInput, "ingest_batch requires at least one item")
	}
	if len(items) > maxBatchItems {
		return nil, verrors.New(verrors.KindInvalidInput, "ingest_batch accepts at most 20 items")
	}

	gateItems := make([]ingestgate.Item, len(items))
	for i, in := range items {
		source := in.Source
		if source == "" {
			source = defaultSource()
		}
		gateItems[i] = ingestgate.Item{Content: in.Content, Tags: in.Tags, NodeType: in.NodeType, Source: source}
	}

	decisions, err := e.gate.DecideBatch(ctx, gateItems, time.Now())
	results := make([]IngestResult, len(decisions))
	for i, d := range decisions {
		results[i] = IngestResult{Decision: d.Decision, MemoryID: d.MemoryID, Channels: d.Channels}
	}
	if err != nil {
		return results, err
	}

	for range decisions {
		e.noteWrite(ctx)
	}
	return results, nil
}
