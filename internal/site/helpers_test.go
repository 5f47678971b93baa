package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/metrics"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeRunner records invocations and writes what nbconvert would write.
type fakeRunner struct {
	mu            sync.Mutex
	calls         []runner.Command
	failNotebooks map[string]bool // notebook base names whose conversion fails
	failSite      bool
	onRun         func(runner.Command)
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(cmd)
	}

	res := runner.Result{Command: cmd, ExitCode: 0, Duration: time.Millisecond}
	failed := func() runner.Result {
		res.ExitCode = 1
		res.Stderr = "boom"
		res.Err = errors.New(cmd.Name + ": exit status 1")
		return res
	}

	if cmd.Name == "mkdocs" {
		if f.failSite {
			return failed()
		}
		return res
	}

	nb, outDir := converterArgs(cmd.Args)
	name := strings.TrimSuffix(filepath.Base(nb), ".ipynb")
	if f.failNotebooks[name] {
		return failed()
	}
	if err := os.MkdirAll(filepath.Join(outDir, "img"), 0o755); err != nil {
		res.Err = err
		return res
	}
	page := "# " + strings.ToUpper(name[:1]) + name[1:] + "\n\n![png](img/" + name + "_1_0.png)\n"
	if err := os.WriteFile(filepath.Join(outDir, name+".md"), []byte(page), 0o644); err != nil {
		res.Err = err
		return res
	}
	_ = os.WriteFile(filepath.Join(outDir, "img", name+"_1_0.png"), []byte("png"), 0o644)
	return res
}

func converterArgs(args []string) (notebook, outDir string) {
	for i, a := range args {
		switch {
		case strings.HasSuffix(a, ".ipynb"):
			notebook = a
		case a == "--output-dir" && i+1 < len(args):
			outDir = args[i+1]
		}
	}
	return notebook, outDir
}

func (f *fakeRunner) convertCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Name == "jupyter" {
			nb, _ := converterArgs(c.Args)
			out = append(out, nb)
		}
	}
	return out
}

func (f *fakeRunner) siteCalls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []runner.Command
	for _, c := range f.calls {
		if c.Name == "mkdocs" {
			out = append(out, c)
		}
	}
	return out
}

// countingRecorder counts stage results and build outcomes.
type countingRecorder struct {
	metrics.NoopRecorder
	stageResults map[string]metrics.ResultLabel
	outcomes     []string
	conversions  map[bool]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stageResults: map[string]metrics.ResultLabel{}, conversions: map[bool]int{}}
}

func (c *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.stageResults[stage] = result
}
func (c *countingRecorder) IncBuildOutcome(outcome string) { c.outcomes = append(c.outcomes, outcome) }
func (c *countingRecorder) ObserveConversionDuration(_ string, _ time.Duration, success bool) {
	c.conversions[success]++
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const indexBody = "# Notebooks\n\nWelcome to the docs.\n"

// newFixture lays out the conventional project tree under a temp dir and
// returns a configuration pointing at it. sections maps section name to
// notebook base names.
func newFixture(t *testing.T, sections map[string][]string) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "static", "js", "app.js"), "console.log('hi')\n")
	writeFile(t, filepath.Join(root, "static", "css", "site.css"), "body{}\n")
	writeFile(t, filepath.Join(root, "notebooks", "img", "logo.png"), "png")
	writeFile(t, filepath.Join(root, "notebooks", "index.md"), indexBody)
	for section, names := range sections {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "notebooks", section), 0o755))
		for _, name := range names {
			writeFile(t, filepath.Join(root, "notebooks", section, name+".ipynb"), `{"cells":[]}`)
		}
	}

	cfg := config.Default()
	cfg.Source.Root = filepath.Join(root, "notebooks")
	cfg.Output.Directory = filepath.Join(root, "docs")
	cfg.Site.Dir = root
	cfg.Timestamp.Location = "UTC"
	for i := range cfg.Assets {
		cfg.Assets[i].Source = filepath.Join(root, cfg.Assets[i].Source)
	}
	return cfg, root
}

func newTestBuilder(cfg *config.Config, r runner.Runner) *Builder {
	return NewBuilder(cfg, r).WithClock(fixedClock)
}

// snapshot returns relative path -> content for every file below dir.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}

func markdownFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			names = append(names, e.Name())
		}
	}
	return names
}
