package watch

import (
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/codecity/pkg/metrics"
)

func fm(path string, loc int) metrics.FileMetrics {
	return metrics.FileMetrics{Path: path, LinesOfCode: loc, LineLengths: make([]int, loc)}
}

func TestDiff(t *testing.T) {
	old := []metrics.FileMetrics{fm("a.py", 10), fm("b.py", 20), fm("c.py", 30)}

	t.Run("no changes", func(t *testing.T) {
		ch := Diff(old, old)
		if !ch.Empty() || ch.Count() != 0 {
			t.Errorf("diff = %+v, want empty", ch)
		}
	})

	t.Run("added removed modified", func(t *testing.T) {
		updated := []metrics.FileMetrics{
			fm("a.py", 10), // unchanged
			fm("b.py", 25), // modified
			fm("d.py", 5),  // added; c.py removed
		}
		ch := Diff(old, updated)

		if !reflect.DeepEqual(ch.Added, []string{"d.py"}) {
			t.Errorf("Added = %v", ch.Added)
		}
		if !reflect.DeepEqual(ch.Removed, []string{"c.py"}) {
			t.Errorf("Removed = %v", ch.Removed)
		}
		if !reflect.DeepEqual(ch.Modified, []string{"b.py"}) {
			t.Errorf("Modified = %v", ch.Modified)
		}
		if ch.Count() != 3 {
			t.Errorf("Count = %d, want 3", ch.Count())
		}
	})

	t.Run("timestamp changes are ignored", func(t *testing.T) {
		stamped := []metrics.FileMetrics{fm("a.py", 10), fm("b.py", 20), fm("c.py", 30)}
		for i := range stamped {
			stamped[i].LastModified = time.Now()
		}
		if ch := Diff(old, stamped); !ch.Empty() {
			t.Errorf("diff = %+v, want empty for timestamp-only change", ch)
		}
	})

	t.Run("line length changes count", func(t *testing.T) {
		reshaped := []metrics.FileMetrics{fm("a.py", 10), fm("b.py", 20), fm("c.py", 30)}
		reshaped[0].LineLengths[3] = 99
		ch := Diff(old, reshaped)
		if !reflect.DeepEqual(ch.Modified, []string{"a.py"}) {
			t.Errorf("Modified = %v, want [a.py]", ch.Modified)
		}
	})

	t.Run("sorted output", func(t *testing.T) {
		ch := Diff(nil, []metrics.FileMetrics{fm("z.py", 1), fm("a.py", 1), fm("m.py", 1)})
		if !reflect.DeepEqual(ch.Added, []string{"a.py", "m.py", "z.py"}) {
			t.Errorf("Added = %v, want sorted", ch.Added)
		}
	})
}
