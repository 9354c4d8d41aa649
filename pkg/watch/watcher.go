// Package watch observes a repository working tree and reports file
// changes, so long-running servers can rebuild city layouts live.
//
// The watcher is recursive: directories created after startup are
// picked up automatically. The .git directory is never watched; git's
// internal churn (index updates, lock files) would otherwise dominate
// the event stream.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/observability"
)

// Kind classifies a file event.
type Kind string

// Event kinds.
const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindRemoved  Kind = "removed"
	KindRenamed  Kind = "renamed"
)

// Event is one observed change, with Path relative to the repository
// root in POSIX form.
type Event struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Watcher streams file events from one repository.
type Watcher struct {
	repoPath string
	fsw      *fsnotify.Watcher
	events   chan Event
	logger   *log.Logger
}

// New creates a watcher over the repository's working tree and
// registers every existing directory except .git. Call Run to start
// delivering events.
func New(repoPath string, logger *log.Logger) (*Watcher, error) {
	if err := errors.ValidateRepoPath(repoPath); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWatch, err, "create watcher")
	}

	w := &Watcher{
		repoPath: repoPath,
		fsw:      fsw,
		events:   make(chan Event, 256),
		logger:   logger,
	}

	if err := w.addRecursive(repoPath); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the stream of file events. The channel closes when
// Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run delivers events until the context is cancelled or the underlying
// watcher fails. It always closes the event channel before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.repoPath, ev.Name)
	if err != nil || isIgnored(rel) {
		return
	}
	rel = filepath.ToSlash(rel)

	// New directories need watches of their own before anything
	// inside them changes.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", rel, "err", err)
			}
			return
		}
	}

	kind, ok := classify(ev.Op)
	if !ok {
		return
	}

	observability.Watch().OnFileEvent(ctx, w.repoPath, rel, string(kind))
	select {
	case w.events <- Event{Path: rel, Kind: kind}:
	default:
		// A slow consumer drops events rather than blocking the
		// notification thread; the debounced rebuild recollects
		// everything anyway.
		w.logger.Debug("event buffer full, dropping", "path", rel)
	}
}

func (w *Watcher) addRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.repoPath, path); relErr == nil && isIgnored(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeWatch, err, "register directories under %s", root)
	}
	return nil
}

// isIgnored reports whether a repo-relative path lies inside .git.
func isIgnored(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".git" || strings.HasPrefix(rel, ".git/")
}

func classify(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreated, true
	case op.Has(fsnotify.Write):
		return KindModified, true
	case op.Has(fsnotify.Remove):
		return KindRemoved, true
	case op.Has(fsnotify.Rename):
		return KindRenamed, true
	default:
		// Chmod-only events carry no layout-relevant information.
		return "", false
	}
}

// Debounce batches raw events: a batch is emitted once delay elapses
// with no further events. The returned channel closes when the input
// closes or the context is cancelled.
func Debounce(ctx context.Context, in <-chan Event, delay time.Duration) <-chan []Event {
	out := make(chan []Event, 1)

	go func() {
		defer close(out)

		var pending []Event
		var timer *time.Timer
		var fire <-chan time.Time

		flush := func() {
			if len(pending) > 0 {
				out <- pending
				pending = nil
			}
			fire = nil
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-in:
				if !ok {
					flush()
					return
				}
				pending = append(pending, ev)
				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(delay)
				}
				fire = timer.C

			case <-fire:
				flush()
			}
		}
	}()

	return out
}
