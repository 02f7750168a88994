package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeroaltitude/vestige/internal/attribution"
	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/zeroaltitude/vestige/internal/dream"
	"github.com/zeroaltitude/vestige/internal/embedder"
	"github.com/zeroaltitude/vestige/internal/events"
	"github.com/zeroaltitude/vestige/internal/ingestgate"
	"github.com/zeroaltitude/vestige/internal/intentions"
	"github.com/zeroaltitude/vestige/internal/retrieval"
	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/tagging"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

// Engine is the composite cognitive engine: it wires Store, Scheduler,
// Embedder/Reranker, EventSink, and every cognitive module behind the
// narrow tool-surface entry points (spec §6), and owns the single coarse
// lock spec §5 requires across their composite state.
//
// The lock guards only the Engine's own bookkeeping — started/shuttingDown,
// the writes-since-last-dream counter, the dream/intention background-tick
// state. It is deliberately NOT held across calls into Gate.Decide,
// Pipeline.Search, Tagger.Sweep, or Cycle.Run: those collaborators already
// take no lock of their own and call out to the embedder/reranker directly
// (embedder.ProtectedEmbedder/ProtectedReranker apply their own circuit
// breaker and rate limiter for that), while Store synchronizes its own
// reads and writes (spec §5 "Store... owns its own reader/writer
// discipline"). This satisfies the suspension-point contract — the engine
// never blocks unrelated tool calls behind a long-running embedding or
// rerank call — without requiring Gate/Pipeline to be refactored to accept
// a lock handle they'd have no safe way to release mid-call.
type Engine struct {
	mu           sync.Mutex
	started      bool
	shuttingDown bool

	store     storage.Store
	scheduler *scheduler.Scheduler
	sink      *events.Broadcaster
	cfg       *config.Config

	gate        *ingestgate.Gate
	pipeline    *retrieval.Pipeline
	tagger      *tagging.Tagger
	dreamCycle  *dream.Cycle
	intentions  *intentions.Manager
	graphWalker *graphWalker

	embedHealth  breakerHealth
	rerankHealth breakerHealth

	writesSinceLastDream int
	lastDreamAt          time.Time

	backgroundCancel context.CancelFunc
	backgroundDone    chan struct{}
}

// New builds an Engine from its fully-constructed collaborators. Callers
// (cmd/vestige-engine) are responsible for opening the store and building
// the embedder/reranker with whatever circuit-breaker/rate-limit wrapping
// they choose; New just wires the cognitive modules on top.
func New(store storage.Store, embed embedder.Embedder, rerank embedder.Reranker, sink *events.Broadcaster, cfg *config.Config) *Engine {
	sched := scheduler.New(cfg)
	e := &Engine{
		store:       store,
		scheduler:   sched,
		sink:        sink,
		cfg:         cfg,
		gate:        ingestgate.New(store, embed, sched, sink),
		pipeline:    retrieval.New(store, embed, rerank, sched, sink, cfg),
		tagger:      tagging.New(store, sched, sink, cfg),
		dreamCycle:  dream.New(store, sched, sink),
		intentions:  intentions.New(store, sink),
		graphWalker: newGraphWalker(store),
	}
	// embed/rerank are accepted as the narrow Embedder/Reranker interfaces so
	// this package doesn't force callers into embedder.Protected*, but when a
	// caller does wrap them (the normal case per cmd/vestige-engine), system
	// status can surface the breaker's health too.
	e.embedHealth, _ = embed.(breakerHealth)
	e.rerankHealth, _ = rerank.(breakerHealth)
	return e
}

// breakerHealth is satisfied by embedder.ProtectedEmbedder/ProtectedReranker;
// asserted against optimistically since New only holds the narrower
// Embedder/Reranker interfaces.
type breakerHealth interface {
	State() string
	Metrics() embedder.BreakerMetrics
}

// Start brings the engine up: it loads persisted engine state, re-sweeps
// any synaptic tags a prior process crashed mid-sweep (spec SPEC_FULL §3
// recovery, mirroring the teacher's RecoverPendingEnrichments), and starts
// the background dream/intention ticker. Must be called before any tool
// method.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return verrors.New(verrors.KindInvariantViolation, "engine already started")
	}

	state, err := e.store.LoadEngineState(ctx)
	if err != nil {
		e.mu.Unlock()
		return verrors.Wrap(verrors.KindStorageError, err, "loading engine state")
	}
	e.writesSinceLastDream = state.WritesSinceLastDream
	e.lastDreamAt = state.LastDreamAt

	e.started = true
	bgCtx, cancel := context.WithCancel(ctx)
	e.backgroundCancel = cancel
	e.backgroundDone = make(chan struct{})
	e.mu.Unlock()

	if _, err := e.tagger.RecoverUnswept(ctx, time.Now()); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "recovering unswept synaptic tags")
	}

	go e.runBackgroundLoop(bgCtx)
	return nil
}

// Shutdown stops the background loop and marks the engine unusable. It
// does not close the Store; the caller that opened it is responsible for
// that, matching the teacher's ownership convention (Start/Shutdown govern
// only what New itself allocated).
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return verrors.New(verrors.KindInvariantViolation, "engine not started")
	}
	e.shuttingDown = true
	cancel := e.backgroundCancel
	done := e.backgroundDone
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	e.mu.Lock()
	e.started = false
	e.mu.Unlock()
	return nil
}

// checkStarted returns an error unless the engine is up and not draining.
func (e *Engine) checkStarted() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.shuttingDown {
		return verrors.New(verrors.KindInvariantViolation, "engine is not accepting calls")
	}
	return nil
}

// noteWrite bumps the writes-since-last-dream counter under the coarse
// lock — the one piece of cross-module composite state the lock exists to
// protect (spec §5) — and persists it so a restart doesn't lose the count.
func (e *Engine) noteWrite(ctx context.Context) {
	e.mu.Lock()
	e.writesSinceLastDream++
	state := storage.EngineState{WritesSinceLastDream: e.writesSinceLastDream, LastDreamAt: e.lastDreamAt}
	e.mu.Unlock()

	_ = e.store.SaveEngineState(ctx, state)
}

// resetDreamCounters records that a dream just completed at now, both in
// memory and persisted, so ShouldTrigger sees the reset on the very next
// background tick even if this process later restarts.
func (e *Engine) resetDreamCounters(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	e.writesSinceLastDream = 0
	e.lastDreamAt = now
	e.mu.Unlock()

	return e.store.SaveEngineState(ctx, storage.EngineState{WritesSinceLastDream: 0, LastDreamAt: now})
}

// engineState snapshots the counters ShouldTrigger needs, under lock.
func (e *Engine) engineState() storage.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return storage.EngineState{WritesSinceLastDream: e.writesSinceLastDream, LastDreamAt: e.lastDreamAt}
}

func defaultSource() string {
	return fmt.Sprintf("agent:%s", attribution.DetectAgent())
}
