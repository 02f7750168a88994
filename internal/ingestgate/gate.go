// Package ingestgate implements the prediction-error gating pipeline: for
// each incoming piece of content it decides whether to create a new memory,
// reinforce an existing one, merge an update into one, or supersede an
// obsolete one (spec §4.3).
package ingestgate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zeroaltitude/vestige/internal/embedder"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

const (
	candidateK              = 8
	candidateMinCosine      = 0.60
	reinforceThreshold      = 0.92
	updateThreshold         = 0.75
	supersedeFloor          = 0.70
	compositeSynapticTagMin = 0.60
	synapticTagTTLDefault   = 9 * time.Hour
)

// Gate runs the prediction-error gating algorithm against a Store.
type Gate struct {
	store     storage.Store
	embed     embedder.Embedder
	scheduler *scheduler.Scheduler
	sink      events.Sink

	lastWriteAt time.Time
}

// New builds a Gate. The engine calls Decide/DecideBatch without holding its
// own lock, so the Embed call never runs under it; Gate itself holds no lock.
func New(store storage.Store, embed embedder.Embedder, sched *scheduler.Scheduler, sink events.Sink) *Gate {
	return &Gate{store: store, embed: embed, scheduler: sched, sink: sink}
}

// Item is a single ingest request.
type Item struct {
	Content  string
	Tags     []string
	NodeType types.NodeType
	Source   string
}

// Result is what Decide reports back to the caller for one item.
type Result struct {
	Decision types.GateDecision
	MemoryID string
	Channels types.ImportanceChannels
}

// Decide runs the full algorithm for a single item, writing any resulting
// store mutation itself. now is passed in explicitly so batch processing
// and tests can control the clock.
func (g *Gate) Decide(ctx context.Context, item Item, now time.Time) (Result, error) {
	if item.Content == "" {
		return Result{}, verrors.New(verrors.KindInvalidInput, "ingest content is required")
	}
	if !types.IsValidNodeType(item.NodeType) {
		return Result{}, verrors.New(verrors.KindInvalidInput, "invalid node_type")
	}

	vec, err := g.embed.Embed(ctx, item.Content)
	if err != nil {
		return Result{}, verrors.Wrap(verrors.KindDependencyUnavailable, err, "embedding ingest content")
	}

	candidate, similarity, err := g.topCandidate(ctx, vec)
	if err != nil {
		return Result{}, err
	}

	if candidate == nil {
		return g.create(ctx, item, vec, now)
	}

	contradicts := Contradicts(item.Content, candidate.Content)

	switch {
	case similarity > reinforceThreshold && !contradicts:
		return g.reinforce(ctx, candidate, now)
	case similarity > updateThreshold && similarity <= reinforceThreshold && !contradicts:
		return g.update(ctx, candidate, item, vec, similarity, now)
	case similarity > supersedeFloor && similarity <= reinforceThreshold && contradicts:
		return g.supersede(ctx, candidate, item, vec, similarity, now)
	default:
		return g.create(ctx, item, vec, now)
	}
}

// DecideBatch processes items sequentially; each just-written memory is
// visible to subsequent candidate lookups within the same batch, since all
// writes go through g.store immediately (spec §4.3 "Batch mode").
func (g *Gate) DecideBatch(ctx context.Context, items []Item, now time.Time) ([]Result, error) {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		r, err := g.Decide(ctx, item, now)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (g *Gate) topCandidate(ctx context.Context, vec []float64) (*types.Memory, float64, error) {
	opts := storage.SearchOptions{Vector: toFloat32(vec), Limit: candidateK}
	opts.Normalize()

	scored, err := g.store.VectorSearch(ctx, opts)
	if err != nil {
		return nil, 0, verrors.Wrap(verrors.KindStorageError, err, "candidate lookup")
	}

	var best *types.Memory
	var bestScore float64
	for _, s := range scored {
		if s.Score < candidateMinCosine {
			continue
		}
		if best == nil || s.Score > bestScore {
			best = s.Memory
			bestScore = s.Score
		}
	}
	return best, bestScore, nil
}

func (g *Gate) reinforce(ctx context.Context, candidate *types.Memory, now time.Time) (Result, error) {
	if _, err := g.scheduler.Review(candidate, scheduler.Good, now); err != nil {
		g.publish(types.Event{Variant: types.EvInvariantViolation, Timestamp: now, MemoryID: candidate.ID})
		return Result{}, err
	}
	if err := g.store.Update(ctx, candidate); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "reinforcing candidate")
	}
	if err := g.store.RecordAccess(ctx, candidate.ID, now); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "recording reinforce access")
	}

	g.publish(types.Event{
		Variant: types.EvMemoryUpdated, Timestamp: now,
		MemoryID: candidate.ID, Decision: types.DecisionReinforce,
	})
	g.lastWriteAt = now
	return Result{Decision: types.DecisionReinforce, MemoryID: candidate.ID}, nil
}

func (g *Gate) update(ctx context.Context, candidate *types.Memory, item Item, vec []float64, similarity float64, now time.Time) (Result, error) {
	candidate.Content = mergeContent(candidate.Content, item.Content)
	candidate.Tags = mergeTags(candidate.Tags, item.Tags)
	candidate.Embedding = toFloat32(vec)
	candidate.EmbeddingDimension = g.embed.Dimension()
	candidate.ContentHash = ""
	candidate.UpdatedAt = now

	if err := g.store.Update(ctx, candidate); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "updating candidate")
	}

	channels := g.scoreImportance(candidate, 1.0-similarity, now)
	if err := g.maybeTag(ctx, candidate.ID, channels, now); err != nil {
		return Result{}, err
	}

	g.publish(types.Event{
		Variant: types.EvMemoryUpdated, Timestamp: now,
		MemoryID: candidate.ID, Decision: types.DecisionUpdate,
	})
	g.lastWriteAt = now
	return Result{Decision: types.DecisionUpdate, MemoryID: candidate.ID, Channels: channels}, nil
}

func (g *Gate) supersede(ctx context.Context, candidate *types.Memory, item Item, vec []float64, similarity float64, now time.Time) (Result, error) {
	candidate.Unavailable = true
	candidate.DeletedAt = now
	if err := g.store.Update(ctx, candidate); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "tombstoning superseded memory")
	}

	mem := newMemory(item, vec, g.embed.Dimension(), now)
	mem.SupersedesID = candidate.ID
	g.scheduler.Initialize(mem, now)

	if err := g.store.Store(ctx, mem); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "storing superseding memory")
	}

	channels := g.scoreImportance(mem, 1.0-similarity, now)
	if err := g.maybeTag(ctx, mem.ID, channels, now); err != nil {
		return Result{}, err
	}

	g.publish(types.Event{
		Variant: types.EvMemoryCreated, Timestamp: now,
		MemoryID: mem.ID, Decision: types.DecisionSupersede,
	})
	g.lastWriteAt = now
	return Result{Decision: types.DecisionSupersede, MemoryID: mem.ID, Channels: channels}, nil
}

func (g *Gate) create(ctx context.Context, item Item, vec []float64, now time.Time) (Result, error) {
	mem := newMemory(item, vec, g.embed.Dimension(), now)
	g.scheduler.Initialize(mem, now)

	if err := g.store.Store(ctx, mem); err != nil {
		return Result{}, verrors.Wrap(verrors.KindStorageError, err, "storing new memory")
	}

	channels := g.scoreImportance(mem, 1.0, now)
	if err := g.maybeTag(ctx, mem.ID, channels, now); err != nil {
		return Result{}, err
	}

	g.publish(types.Event{
		Variant: types.EvMemoryCreated, Timestamp: now,
		MemoryID: mem.ID, Decision: types.DecisionCreate,
	})
	g.lastWriteAt = now
	return Result{Decision: types.DecisionCreate, MemoryID: mem.ID, Channels: channels}, nil
}

// scoreImportance computes the four-channel importance breakdown (spec
// §4.3 step 6). novelty is 1 minus the similarity to the nearest prior
// candidate that drove this decision (1.0 when there was none, i.e. Create).
func (g *Gate) scoreImportance(mem *types.Memory, novelty float64, now time.Time) types.ImportanceChannels {
	return types.ImportanceChannels{
		Novelty:   clamp01(novelty),
		Arousal:   computeArousal(mem.Content),
		Reward:    computeReward(mem),
		Attention: computeAttention(now, g.lastWriteAt),
	}
}

func (g *Gate) maybeTag(ctx context.Context, memoryID string, channels types.ImportanceChannels, now time.Time) error {
	if channels.Composite() < compositeSynapticTagMin {
		return nil
	}
	tag := types.SynapticTag{
		MemoryID:      memoryID,
		CreatedAt:     now,
		TagStrength:   channels.Composite(),
		DecayFunction: types.DecayExp,
		ExpiresAt:     now.Add(synapticTagTTLDefault),
	}
	if err := g.store.CreateSynapticTag(ctx, tag); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "creating synaptic tag")
	}
	return nil
}

func (g *Gate) publish(e types.Event) {
	if g.sink != nil {
		g.sink.Publish(e)
	}
}

func newMemory(item Item, vec []float64, dim int, now time.Time) *types.Memory {
	nodeType := item.NodeType
	if nodeType == "" {
		nodeType = types.NodeNote
	}
	return &types.Memory{
		ID:                 uuid.NewString(),
		Content:            item.Content,
		Type:               nodeType,
		Tags:               item.Tags,
		Embedding:          toFloat32(vec),
		EmbeddingDimension: dim,
		CreatedAt:          now,
		UpdatedAt:          now,
		Source:             item.Source,
	}
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
