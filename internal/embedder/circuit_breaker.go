package embedder

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned when the breaker is open and rejects calls to
// protect the engine from cascading failures of a slow or down collaborator.
var ErrCircuitOpen = errors.New("embedder circuit breaker is open")

// BreakerConfig configures the protective wrapper placed in front of an
// Embedder/Reranker collaborator.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before probing half-open.
	Timeout time.Duration
	// HalfOpenMaxRequests is how many probe requests half-open allows through.
	HalfOpenMaxRequests uint32
	// RateLimitPerSecond caps outbound calls; zero disables limiting.
	RateLimitPerSecond float64
	// RateLimitBurst is the limiter's burst allowance.
	RateLimitBurst int
}

// DefaultBreakerConfig mirrors the teacher's LLM circuit breaker defaults.
var DefaultBreakerConfig = BreakerConfig{
	MaxFailures:         3,
	Timeout:             30 * time.Second,
	HalfOpenMaxRequests: 2,
	RateLimitPerSecond:  20,
	RateLimitBurst:      5,
}

// ProtectedEmbedder wraps an Embedder with a circuit breaker and rate
// limiter, called without the engine's coarse lock held (§5 suspension-point
// contract) so a slow collaborator never blocks other engine operations.
type ProtectedEmbedder struct {
	inner   Embedder
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewProtectedEmbedder(inner Embedder, cfg BreakerConfig) *ProtectedEmbedder {
	return &ProtectedEmbedder{
		inner:   inner,
		breaker: newBreaker("EmbedderCircuitBreaker", cfg),
		limiter: newLimiter(cfg),
	}
}

func (p *ProtectedEmbedder) Dimension() int { return p.inner.Dimension() }

// State reports the breaker's current state for system_status()'s
// module-health section, mirroring the teacher's CircuitBreaker.State.
func (p *ProtectedEmbedder) State() string { return breakerStateName(p.breaker.State()) }

// Metrics reports the breaker's consecutive success/failure counts.
func (p *ProtectedEmbedder) Metrics() BreakerMetrics { return breakerMetrics(p.breaker.Counts()) }

func (p *ProtectedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result.([]float64), nil
}

// ProtectedReranker wraps a Reranker the same way ProtectedEmbedder wraps an
// Embedder.
type ProtectedReranker struct {
	inner   Reranker
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewProtectedReranker(inner Reranker, cfg BreakerConfig) *ProtectedReranker {
	return &ProtectedReranker{
		inner:   inner,
		breaker: newBreaker("RerankerCircuitBreaker", cfg),
		limiter: newLimiter(cfg),
	}
}

// State reports the breaker's current state, mirroring ProtectedEmbedder.State.
func (p *ProtectedReranker) State() string { return breakerStateName(p.breaker.State()) }

// Metrics reports the breaker's consecutive success/failure counts.
func (p *ProtectedReranker) Metrics() BreakerMetrics { return breakerMetrics(p.breaker.Counts()) }

func (p *ProtectedReranker) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Rerank(ctx, query, candidates)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result.([]float64), nil
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})
}

// BreakerMetrics reports a breaker's consecutive success/failure counts,
// mirroring the teacher's CircuitBreakerMetrics narrowed to the fields
// gobreaker.Counts already tracks for us (the teacher's own running
// lifetime totals require bookkeeping gobreaker doesn't expose, and
// system_status() only needs the consecutive counts to judge current health).
type BreakerMetrics struct {
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func breakerMetrics(counts gobreaker.Counts) BreakerMetrics {
	return BreakerMetrics{ConsecutiveSuccesses: counts.ConsecutiveSuccesses, ConsecutiveFailures: counts.ConsecutiveFailures}
}

func breakerStateName(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func newLimiter(cfg BreakerConfig) *rate.Limiter {
	if cfg.RateLimitPerSecond <= 0 {
		return nil
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
}
