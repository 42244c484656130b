package postservice

import "strings"

// NormalizeTag trims and lowercases a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTags lowercases every name, drops empty ones and removes duplicates keeping the first occurrence.
// The result is never nil.
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		n := NormalizeTag(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}

// ReconcileTags returns the tags whose count must go up (only in newTags) and down (only in oldTags).
// Tags present in both lists are in neither result. Both inputs are normalized first.
func ReconcileTags(oldTags, newTags []string) (increments, decrements []string) {
	oldTags = NormalizeTags(oldTags)
	newTags = NormalizeTags(newTags)

	oldSet := make(map[string]struct{}, len(oldTags))
	for _, t := range oldTags {
		oldSet[t] = struct{}{}
	}

	newSet := make(map[string]struct{}, len(newTags))
	for _, t := range newTags {
		newSet[t] = struct{}{}
		if _, ok := oldSet[t]; !ok {
			increments = append(increments, t)
		}
	}

	for _, t := range oldTags {
		if _, ok := newSet[t]; !ok {
			decrements = append(decrements, t)
		}
	}

	return increments, decrements
}
