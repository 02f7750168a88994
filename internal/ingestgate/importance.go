package ingestgate

import (
	"strings"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// sourceReliability maps a memory's Source to a reward weight, mirroring the
// teacher's ConfidenceScorer.calculateSourceScore source-reliability table
// but repurposed here as the reward channel's source component rather than
// a standalone confidence factor.
var sourceReliability = map[string]float64{
	"manual":   1.0,
	"note":     0.95,
	"document": 0.85,
	"email":    0.8,
	"message":  0.75,
	"imported": 0.7,
	"auto":     0.6,
}

// rewardTags are tag values that themselves indicate a high-value memory
// (spec §4.3 step 6: "reward from tag set {preference, decision, bug-fix}").
var rewardTags = map[string]bool{
	"preference": true,
	"decision":   true,
	"bug-fix":    true,
	"bugfix":     true,
}

// arousalLexicon is a small sentiment-magnitude lexicon: words whose
// presence signals emotional charge, each contributing a fixed bump to the
// arousal channel. Not a full sentiment model — a coarse magnitude cue is
// all spec §4.3's arousal channel calls for.
var arousalLexicon = []string{
	"urgent", "critical", "love", "hate", "amazing", "terrible",
	"excited", "furious", "devastating", "incredible", "worried",
	"thrilled", "disaster", "breakthrough", "crisis", "emergency",
}

// computeArousal scores sentiment-lexicon magnitude in [0,1]: each matched
// term contributes 0.25, capped at 1.0.
func computeArousal(content string) float64 {
	lower := strings.ToLower(content)
	var hits float64
	for _, term := range arousalLexicon {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return clamp01(hits * 0.25)
}

// computeReward scores tag-set membership and source reliability, averaged.
func computeReward(mem *types.Memory) float64 {
	tagScore := 0.3 // baseline when no reward tag present
	for _, tag := range mem.Tags {
		if rewardTags[strings.ToLower(tag)] {
			tagScore = 1.0
			break
		}
	}

	sourceScore, ok := sourceReliability[strings.ToLower(mem.Source)]
	if !ok {
		sourceScore = 0.5
	}

	return clamp01((tagScore + sourceScore) / 2.0)
}

// computeAttention scores the recency of other writes: the more recently
// something else was ingested, the higher the attentional salience of this
// one landing in the same burst. lastWriteAt is the zero Time if this is
// the very first write the engine has ever seen.
func computeAttention(now, lastWriteAt time.Time) float64 {
	if lastWriteAt.IsZero() {
		return 0.5
	}
	elapsed := now.Sub(lastWriteAt)
	switch {
	case elapsed < time.Minute:
		return 1.0
	case elapsed < 10*time.Minute:
		return 0.8
	case elapsed < time.Hour:
		return 0.5
	case elapsed < 24*time.Hour:
		return 0.3
	default:
		return 0.1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
