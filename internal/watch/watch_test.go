package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseRoots(t *testing.T) {
	got := collapseRoots([]string{"/p/notebooks/img", "/p/static/js", "/p/notebooks", "/p/static/js", "/p/static/css"})
	assert.Equal(t, []string{"/p/notebooks", "/p/static/css", "/p/static/js"}, got)
}

func TestShouldIgnoreEvent(t *testing.T) {
	for path, want := range map[string]bool{
		"/n/intro.ipynb":           false,
		"/n/index.md":              false,
		"/n/.ipynb_checkpoints":    true,
		"/n/.intro.ipynb.swp":      true,
		"/n/intro.ipynb~":          true,
		"/n/#intro#":               true,
		"/n/basics/.~intro.ipynb":  true,
		"/n/build-report.json.tmp": true,
	} {
		assert.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}

func TestNew_RequiresRoots(t *testing.T) {
	_, err := New(nil, func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestWatcher_IgnoredPaths(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, func(context.Context) error { return nil }, WithIgnore(filepath.Join(dir, "docs")))
	require.NoError(t, err)
	assert.True(t, w.ignored(filepath.Join(dir, "docs", "index.md")))
	assert.False(t, w.ignored(filepath.Join(dir, "notebooks", "index.md")))
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	section := filepath.Join(dir, "basics")
	require.NoError(t, os.MkdirAll(section, 0o755))

	var builds atomic.Int32
	w, err := New([]string{dir}, func(context.Context) error {
		builds.Add(1)
		return nil
	}, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond, "initial build")

	// A burst of writes collapses into one rebuild.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(section, "intro.ipynb"), []byte{byte('a' + i)}, 0o644))
	}
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 2*time.Second, 10*time.Millisecond, "rebuild after change")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), builds.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
