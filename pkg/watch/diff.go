package watch

import (
	"slices"
	"sort"

	"github.com/matzehuels/codecity/pkg/metrics"
)

// Changes summarizes how one metrics snapshot differs from another.
// Paths in each list are sorted for stable output.
type Changes struct {
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Empty reports whether no files changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Count returns the total number of changed files.
func (c Changes) Count() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified)
}

// Diff compares two metrics snapshots by path. A file counts as
// modified when its measured content changes; timestamp-only changes
// are ignored so a rebase without edits produces an empty diff.
func Diff(old, new []metrics.FileMetrics) Changes {
	oldByPath := make(map[string]metrics.FileMetrics, len(old))
	for _, f := range old {
		oldByPath[f.Path] = f
	}

	var ch Changes
	seen := make(map[string]bool, len(new))
	for _, f := range new {
		seen[f.Path] = true
		prev, existed := oldByPath[f.Path]
		if !existed {
			ch.Added = append(ch.Added, f.Path)
			continue
		}
		if contentChanged(prev, f) {
			ch.Modified = append(ch.Modified, f.Path)
		}
	}
	for _, f := range old {
		if !seen[f.Path] {
			ch.Removed = append(ch.Removed, f.Path)
		}
	}

	sort.Strings(ch.Added)
	sort.Strings(ch.Removed)
	sort.Strings(ch.Modified)
	return ch
}

func contentChanged(a, b metrics.FileMetrics) bool {
	return a.LinesOfCode != b.LinesOfCode ||
		a.AvgLineLength != b.AvgLineLength ||
		a.Language != b.Language ||
		!slices.Equal(a.LineLengths, b.LineLengths)
}
