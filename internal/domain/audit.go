package domain

import (
	"sort"
	"strings"
)

// AppendHistory returns history with the new entry appended. Existing entries
// are never mutated or removed; callers must treat the result as the new
// canonical trail.
func AppendHistory(history []StatusHistoryEntry, entry StatusHistoryEntry) []StatusHistoryEntry {
	out := make([]StatusHistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry)
}

// SortedHistory returns the trail ordered by timestamp ascending. Entries with
// equal timestamps keep their insertion order, which consumers rely on when
// rendering the timeline.
func SortedHistory(history []StatusHistoryEntry) []StatusHistoryEntry {
	out := make([]StatusHistoryEntry, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// NormalizeTags trims entries and removes duplicates and empty values while
// preserving first insertion order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
