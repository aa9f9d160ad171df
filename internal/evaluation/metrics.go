package evaluation

import "strings"

// Recall computes the fraction of expected items present in observed.
// Returns 1.0 if nothing was expected.
func Recall(expected, observed []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	observedSet := make(map[string]struct{}, len(observed))
	for _, o := range observed {
		observedSet[o] = struct{}{}
	}

	found := 0
	for _, e := range expected {
		if _, ok := observedSet[e]; ok {
			found++
		}
	}

	return float64(found) / float64(len(expected))
}

// ContainsAny reports whether text contains at least one phrase,
// ignoring case. An empty phrase list is always satisfied.
func ContainsAny(text string, phrases []string) bool {
	if len(phrases) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// FirstContained returns the first phrase found in text, ignoring case.
func FirstContained(text string, phrases []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
