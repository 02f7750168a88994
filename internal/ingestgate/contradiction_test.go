package ingestgate

import "testing"

func TestContradicts_DetectsNegationCue(t *testing.T) {
	if !Contradicts("actually, the deploy window is Tuesday not Friday", "the deploy window is Friday") {
		t.Error("expected negation cue to be detected as a contradiction")
	}
}

func TestContradicts_DetectsPreferenceSwitch(t *testing.T) {
	if !Contradicts("I prefer dark mode over light mode now", "the user likes light mode") {
		t.Error("expected a prefer...over phrase to be detected as a contradiction")
	}
}

func TestContradicts_DetectsAntonymPair(t *testing.T) {
	if !Contradicts("please disable the feature flag", "the feature flag is enabled by default") {
		t.Error("expected an antonym pair across incoming/candidate text to be detected")
	}
}

func TestContradicts_NoSignalReturnsFalse(t *testing.T) {
	if Contradicts("the deploy pipeline runs nightly", "the deploy pipeline runs nightly in us-east-1") {
		t.Error("expected no contradiction for compatible statements")
	}
}

func TestContradicts_EmptyStringsReturnFalse(t *testing.T) {
	if Contradicts("", "") {
		t.Error("expected no contradiction for empty strings")
	}
}
