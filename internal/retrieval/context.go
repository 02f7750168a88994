package retrieval

import "time"

// contextMatch runs Stage 5: when the memory carries encoding context, adds
// a similarity bonus for tag overlap, time-of-day match, and project match
// (spec §4.4).
func (p *Pipeline) contextMatch(cands []*candidate, opts Options, now time.Time) {
	bucket := opts.TimeOfDayBucket
	if bucket == "" {
		bucket = timeOfDayBucket(now)
	}

	for _, c := range cands {
		ec := c.memory.EncodingContext
		if len(ec.Tags) == 0 && ec.Project == "" && ec.TimeOfDayBucket == "" {
			continue
		}
		c.score += p.contextWeights.Tag * jaccard(opts.ContextTags, ec.Tags)
		if ec.TimeOfDayBucket != "" && ec.TimeOfDayBucket == bucket {
			c.score += p.contextWeights.TOD
		}
		if opts.Project != "" && ec.Project != "" && ec.Project == opts.Project {
			c.score += p.contextWeights.Project
		}
	}
}

// jaccard computes |a ∩ b| / |a ∪ b| over two tag sets. Two empty sets
// match fully (1.0): there's no conflicting signal to penalize.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	intersection := 0
	union := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		union[t] = true
	}
	for _, t := range b {
		union[t] = true
		if set[t] {
			intersection++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// timeOfDayBucket derives the bucket label from the hour of now, matching
// the vocabulary Memory.EncodingContext.TimeOfDayBucket uses.
func timeOfDayBucket(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}
