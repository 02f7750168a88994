package retrieval

import (
	"testing"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/pkg/types"
)

func TestMinMaxNormalize_RescalesToUnitInterval(t *testing.T) {
	scored := []storage.Scored{
		{Memory: &types.Memory{ID: "a"}, Score: 1.0},
		{Memory: &types.Memory{ID: "b"}, Score: 3.0},
		{Memory: &types.Memory{ID: "c"}, Score: 5.0},
	}
	norm := minMaxNormalize(scored)
	if norm[0] != 0.0 || norm[2] != 1.0 || norm[1] != 0.5 {
		t.Errorf("expected [0, 0.5, 1], got %v", norm)
	}
}

func TestMinMaxNormalize_DegenerateSetMapsToOne(t *testing.T) {
	scored := []storage.Scored{
		{Memory: &types.Memory{ID: "a"}, Score: 2.0},
		{Memory: &types.Memory{ID: "b"}, Score: 2.0},
	}
	norm := minMaxNormalize(scored)
	if norm[0] != 1.0 || norm[1] != 1.0 {
		t.Errorf("expected a degenerate set to map to [1, 1], got %v", norm)
	}
}

func TestMinMaxNormalize_EmptySet(t *testing.T) {
	if got := minMaxNormalize(nil); len(got) != 0 {
		t.Errorf("expected an empty result for an empty set, got %v", got)
	}
}
