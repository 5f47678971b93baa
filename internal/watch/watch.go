// Package watch rebuilds the documentation whenever its inputs change.
//
// Every rebuild is a full build. Events are debounced and builds run on the
// watch loop itself, so changes that arrive while a build is running are
// coalesced into a single follow-up build.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/nbdocs/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one full build. Errors are logged and do not stop watching.
type BuildFunc func(ctx context.Context) error

// Watcher triggers builds on file changes below a set of roots.
type Watcher struct {
	roots    []string
	ignore   []string
	debounce time.Duration
	build    BuildFunc
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore excludes paths (and everything below them) from watching,
// typically the output directory.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// New creates a Watcher over roots. Roots nested inside other roots are dropped.
func New(roots []string, build BuildFunc, opts ...Option) (*Watcher, error) {
	w := &Watcher{debounce: DefaultDebounce, build: build}
	for _, opt := range opts {
		opt(w)
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve watch root %s: %w", r, err)
		}
		abs = append(abs, a)
	}
	w.roots = collapseRoots(abs)
	if len(w.roots) == 0 {
		return nil, errors.New("no directories to watch")
	}
	return w, nil
}

// Roots returns the effective watch roots.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Run performs an initial build, then rebuilds after changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, root := range w.roots {
		if err := w.addDirsRecursive(fw, root); err != nil {
			return err
		}
	}
	slog.Info("Watching for changes", slog.Any("roots", w.roots), slog.Duration("debounce", w.debounce))

	w.runBuild(ctx)

	// Reset and Stop need no channel draining as of Go 1.23.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(fw, ev) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		case <-timer.C:
			slog.Info("Change detected; rebuilding")
			w.runBuild(ctx)
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.build(ctx); err != nil {
		slog.Warn("rebuild failed", logfields.Error(err))
	}
}

// handleEvent reports whether ev should trigger a rebuild. New directories
// are added to the watch set.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) {
		return false
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (shouldIgnoreEvent(path) || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if isWithin(ig, path) {
			return true
		}
	}
	return false
}

// shouldIgnoreEvent returns true for hidden, editor swap and temp files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}

// collapseRoots removes duplicates and roots nested in other roots.
func collapseRoots(roots []string) []string {
	sorted := slices.Clone(roots)
	slices.Sort(sorted)
	out := make([]string, 0, len(sorted))
	for _, r := range sorted {
		nested := false
		for _, kept := range out {
			if isWithin(kept, r) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, r)
		}
	}
	return out
}

func isWithin(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
