package ingestgate

import "strings"

// mergeContent appends the incoming content's sentences to the existing
// content, dropping any sentence from incoming that is a near-duplicate of
// one already present (spec §4.3 step 5: "merge content (newer facts
// appended, redundant sentences removed)").
func mergeContent(existing, incoming string) string {
	existingSentences := splitSentences(existing)
	seen := make(map[string]bool, len(existingSentences))
	for _, s := range existingSentences {
		seen[normalizeSentence(s)] = true
	}

	merged := strings.TrimRight(existing, " \n")
	for _, s := range splitSentences(incoming) {
		key := normalizeSentence(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if merged != "" {
			merged += " "
		}
		merged += strings.TrimSpace(s)
	}
	return merged
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	})
}

func normalizeSentence(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mergeTags unions two tag sets, preserving a's order and appending b's
// novel tags.
func mergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, tag := range a {
		if !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	for _, tag := range b {
		if !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}
