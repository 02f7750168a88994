package ingestgate

import "strings"

// negationCues are words/phrases whose presence in the incoming content
// signals a correction or reversal of a prior statement (spec §4.3 step 4).
// This is a textual detector, unlike the teacher's structural graph-based
// relationship analysis — there is no relationship graph here to inspect,
// only the raw content strings being compared.
var negationCues = []string{
	"not ", "n't ", "no longer", "actually,", "actually ", "instead of",
	"rather than", "contrary to", "reversed", "correction:", "wrong,",
	"mistaken", "incorrect",
}

// preferenceCues mark an explicit preference switch ("prefer X over Y"),
// called out explicitly in spec §4.3 step 4.
var preferenceCues = []string{"prefer", "over"}

// antonymPairs are small fixed antonym pairs checked against the candidate's
// text: if the incoming content contains one member and the candidate
// contains the other, that is itself a contradiction signal.
var antonymPairs = [][2]string{
	{"enable", "disable"},
	{"enabled", "disabled"},
	{"allow", "forbid"},
	{"allow", "deny"},
	{"increase", "decrease"},
	{"start", "stop"},
	{"always", "never"},
	{"true", "false"},
	{"on", "off"},
	{"like", "dislike"},
	{"agree", "disagree"},
}

// Contradicts scans incoming content against a candidate's content for
// negation/correction cues and antonym-pair mismatches (spec §4.3 step 4).
// A detection failure (there isn't one here — this is a pure string scan)
// defaults to false per spec's error-handling note for this step.
func Contradicts(incoming, candidate string) bool {
	lowerIncoming := strings.ToLower(incoming)
	lowerCandidate := strings.ToLower(candidate)

	for _, cue := range negationCues {
		if strings.Contains(lowerIncoming, cue) {
			return true
		}
	}

	if hasPreferenceSwitch(lowerIncoming) {
		return true
	}

	for _, pair := range antonymPairs {
		a, b := pair[0], pair[1]
		if strings.Contains(lowerIncoming, a) && strings.Contains(lowerCandidate, b) {
			return true
		}
		if strings.Contains(lowerIncoming, b) && strings.Contains(lowerCandidate, a) {
			return true
		}
	}

	return false
}

func hasPreferenceSwitch(lowerIncoming string) bool {
	idx := strings.Index(lowerIncoming, "prefer")
	if idx < 0 {
		return false
	}
	return strings.Contains(lowerIncoming[idx:], "over")
}
