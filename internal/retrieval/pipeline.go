// Package retrieval implements the seven-stage search pipeline: overfetch,
// rerank, temporal boost, accessibility filter, context match, competition,
// and spreading activation (spec §4.4).
package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/embedder"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

const (
	defaultK = 10

	bm25Weight   = 0.3
	cosineWeight = 0.7

	temporalBeta = 0.2
	temporalTau  = 7.0

	competitionCosineFloor = 0.80
	competitionPenalty     = 0.05

	spreadingDepth           = 2
	spreadingHopDecay        = 0.5
	spreadingActivationFloor = 0.25
	spreadingBoost           = 0.02
)

// Options configures a single Search call (spec §4.4 "Input").
type Options struct {
	Query              string
	K                  int
	ContextTags        []string
	Project            string
	TimeOfDayBucket    string // "morning"/"afternoon"/"evening"/"night"; empty derives from now
	MinRetention       float64
	IncludeUnavailable bool
}

func (o *Options) normalize() {
	if o.K < 1 {
		o.K = defaultK
	}
}

// Winner is a single ranked result with its final fused/boosted score.
type Winner struct {
	Memory *types.Memory
	Score  float64
}

// SideEffects reports what the search caused beyond the returned list
// (spec §4.4 "Output").
type SideEffects struct {
	StateTransitions   []storage.StateTransition
	ActivatedNeighbors []string
}

// Result is what Search returns.
type Result struct {
	Winners []Winner
	Effects SideEffects
	// Warning is set when a dependency degraded the pipeline rather than
	// aborting it (spec §7 dependency_unavailable).
	Warning string
}

// Pipeline runs the retrieval algorithm against a Store plus its embedding
// and reranking collaborators. The engine calls Search without holding its
// own lock, so Embed/Rerank never run under it; Pipeline itself holds no lock.
type Pipeline struct {
	store     storage.Store
	embed     embedder.Embedder
	rerank    embedder.Reranker
	scheduler *scheduler.Scheduler
	sink      events.Sink

	overfetchMultiplier int
	contextWeights      config.ContextBonusWeights
}

// New builds a Pipeline. rerank may be nil: the rerank stage is then skipped
// unconditionally, matching the "Reranker unavailable" degrade path.
func New(store storage.Store, embed embedder.Embedder, rerank embedder.Reranker, sched *scheduler.Scheduler, sink events.Sink, cfg *config.Config) *Pipeline {
	multiplier := cfg.SearchOverfetchFactor
	if multiplier < 1 {
		multiplier = 3
	}
	return &Pipeline{
		store: store, embed: embed, rerank: rerank, scheduler: sched, sink: sink,
		overfetchMultiplier: multiplier, contextWeights: cfg.ContextBonusWeights,
	}
}

type candidate struct {
	memory         *types.Memory
	bm25           float64
	cos            float64
	score          float64
	retrievability float64
}

// Search runs the full seven-stage pipeline and applies its side effects.
func (p *Pipeline) Search(ctx context.Context, opts Options, now time.Time) (Result, error) {
	opts.normalize()
	if opts.Query == "" {
		return Result{}, verrors.New(verrors.KindInvalidInput, "search query is required")
	}

	cands, warning, err := p.overfetch(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	if len(cands) == 0 {
		return Result{Warning: warning}, nil
	}

	cands, rerankWarning := p.rerankStage(ctx, opts.Query, cands)
	if warning == "" {
		warning = rerankWarning
	}

	p.temporalBoost(cands, now)

	cands = p.accessibilityFilter(cands, opts, now)
	if len(cands) == 0 {
		return Result{Warning: warning}, nil
	}

	p.contextMatch(cands, opts, now)

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	cut := opts.K
	if cut > len(cands) {
		cut = len(cands)
	}
	winners := cands[:cut]
	losers := cands[cut:]

	transitions, err := p.competition(ctx, winners, losers, now)
	if err != nil {
		return Result{}, err
	}

	activated, err := p.spreadingActivation(ctx, winners, now)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Effects: SideEffects{StateTransitions: transitions, ActivatedNeighbors: activated},
		Warning: warning,
	}
	for _, c := range winners {
		result.Winners = append(result.Winners, Winner{Memory: c.memory, Score: c.score})
		if _, err := p.scheduler.Review(c.memory, scheduler.Good, now); err != nil {
			p.publish(types.Event{Variant: types.EvInvariantViolation, Timestamp: now, MemoryID: c.memory.ID})
			return Result{}, err
		}
		if err := p.store.Update(ctx, c.memory); err != nil {
			return Result{}, verrors.Wrap(verrors.KindStorageError, err, "recording testing-effect access")
		}
		if err := p.store.RecordAccess(ctx, c.memory.ID, now); err != nil {
			return Result{}, verrors.Wrap(verrors.KindStorageError, err, "recording testing-effect access history")
		}
	}

	p.publish(types.Event{Variant: types.EvSearchPerformed, Timestamp: now, Query: opts.Query})
	return result, nil
}

func (p *Pipeline) publish(e types.Event) {
	if p.sink != nil {
		p.sink.Publish(e)
	}
}
