package embedder

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyEmbedder struct {
	failures int
	calls    int
	dim      int
}

func (f *flakyEmbedder) Dimension() int { return f.dim }

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("simulated failure")
	}
	return make([]float64, f.dim), nil
}

func TestProtectedEmbedder_PassesThroughOnSuccess(t *testing.T) {
	inner := &flakyEmbedder{dim: 8}
	p := NewProtectedEmbedder(inner, BreakerConfig{MaxFailures: 3, Timeout: time.Second, HalfOpenMaxRequests: 1})

	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 8 {
		t.Errorf("expected dim 8, got %d", len(vec))
	}
}

func TestProtectedEmbedder_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, dim: 8}
	p := NewProtectedEmbedder(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxRequests: 1})

	for i := 0; i < 2; i++ {
		if _, err := p.Embed(context.Background(), "x"); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	_, err := p.Embed(context.Background(), "x")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen after tripping, got %v", err)
	}
}

func TestProtectedEmbedder_RateLimiterBlocksBurstOverflow(t *testing.T) {
	inner := &flakyEmbedder{dim: 4}
	p := NewProtectedEmbedder(inner, BreakerConfig{
		MaxFailures: 5, Timeout: time.Second, HalfOpenMaxRequests: 1,
		RateLimitPerSecond: 1, RateLimitBurst: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if _, err := p.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("first call should consume the single burst token without error: %v", err)
	}

	if _, err := p.Embed(ctx, "second"); err == nil {
		t.Errorf("expected the rate limiter to block the second call until the context deadline")
	}
}

func TestProtectedEmbedder_DimensionDelegatesToInner(t *testing.T) {
	inner := &flakyEmbedder{dim: 17}
	p := NewProtectedEmbedder(inner, DefaultBreakerConfig)
	if p.Dimension() != 17 {
		t.Errorf("Dimension() = %d, want 17", p.Dimension())
	}
}
