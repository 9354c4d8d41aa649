// Package metrics computes per-file source metrics for city layouts.
//
// The collector walks a repository's tracked files and produces one
// [FileMetrics] record per file: line count, per-line lengths, average
// line length, and a language tag derived from the file extension.
// Git timestamps are filled in separately by pkg/gitinfo.
//
// Paths are always POSIX-style and relative to the repository root,
// regardless of host OS, so downstream consumers can treat them as
// stable keys.
package metrics

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileMetrics describes a single file. Records are immutable once
// collected; the layout engine never mutates them.
type FileMetrics struct {
	// Path is the POSIX-style path relative to the repository root.
	// It is the unique key for the file across the whole system.
	Path string `json:"path"`

	LinesOfCode   int     `json:"lines_of_code"`
	AvgLineLength float64 `json:"avg_line_length"`

	// LineLengths holds the character count of every line, in file
	// order. Its length equals LinesOfCode.
	LineLengths []int `json:"line_lengths,omitempty"`

	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// ValidPath reports whether a path is usable as a metrics key:
// non-empty, relative, and slash-separated.
func ValidPath(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") {
		return false
	}
	return !strings.Contains(path, "\\")
}

// Collect reads the given files under repoPath and computes their
// metrics. Files that cannot be read yield zero metrics with language
// "unknown" rather than an error, matching the behavior of the rest of
// the analysis pipeline: a single unreadable file should never sink a
// whole layout. The input order is preserved in the result, and that
// order becomes the layout engine's deterministic tie-break.
func Collect(ctx context.Context, repoPath string, files []string) ([]FileMetrics, error) {
	out := make([]FileMetrics, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ValidPath(rel) {
			continue
		}
		m := measureFile(filepath.Join(repoPath, filepath.FromSlash(rel)))
		m.Path = rel
		out = append(out, m)
	}
	return out, nil
}

// measureFile computes line metrics for one file on disk.
func measureFile(absPath string) FileMetrics {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return FileMetrics{Language: "unknown"}
	}

	lines := splitLines(string(data))
	lengths := make([]int, len(lines))
	total := 0
	for i, line := range lines {
		n := len([]rune(line))
		lengths[i] = n
		total += n
	}

	avg := 0.0
	if len(lines) > 0 {
		avg = round2(float64(total) / float64(len(lines)))
	}

	return FileMetrics{
		LinesOfCode:   len(lines),
		AvgLineLength: avg,
		LineLengths:   lengths,
		Language:      LanguageForExtension(filepath.Ext(absPath)),
	}
}

// splitLines splits file content the way editors count lines: a
// trailing newline does not add an empty final line, and an empty file
// has zero lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
