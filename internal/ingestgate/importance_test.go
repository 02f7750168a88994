package ingestgate

import (
	"testing"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

func TestComputeArousal_ScalesWithLexiconHits(t *testing.T) {
	none := computeArousal("the weather is mild today")
	some := computeArousal("this is an urgent and critical emergency")
	if some <= none {
		t.Errorf("expected lexicon hits to raise arousal: none=%f some=%f", none, some)
	}
	if some > 1.0 {
		t.Errorf("expected arousal to be capped at 1.0, got %f", some)
	}
}

func TestComputeReward_RewardTagScoresHigherThanPlain(t *testing.T) {
	plain := computeReward(&types.Memory{Tags: []string{"misc"}, Source: "auto"})
	decision := computeReward(&types.Memory{Tags: []string{"decision"}, Source: "manual"})
	if decision <= plain {
		t.Errorf("expected a reward tag + reliable source to score higher: plain=%f decision=%f", plain, decision)
	}
}

func TestComputeReward_UnknownSourceFallsBackToDefault(t *testing.T) {
	score := computeReward(&types.Memory{Source: "some-unlisted-source"})
	if score <= 0 || score > 1 {
		t.Errorf("expected a bounded default score, got %f", score)
	}
}

func TestComputeAttention_RecentWriteScoresHighest(t *testing.T) {
	now := time.Now()
	recent := computeAttention(now, now.Add(-30*time.Second))
	stale := computeAttention(now, now.Add(-48*time.Hour))
	if recent <= stale {
		t.Errorf("expected a recent prior write to score higher attention: recent=%f stale=%f", recent, stale)
	}
}

func TestComputeAttention_ZeroLastWriteIsNeutralDefault(t *testing.T) {
	score := computeAttention(time.Now(), time.Time{})
	if score != 0.5 {
		t.Errorf("expected neutral default 0.5 for no prior write, got %f", score)
	}
}
