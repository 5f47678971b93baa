package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
)

// stubRunner writes a page for every converter call and succeeds for the site builder.
type stubRunner struct {
	fail map[string]bool
}

func (s stubRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	res := runner.Result{Command: cmd, Duration: time.Millisecond}
	if cmd.Name != "jupyter" {
		return res
	}
	var notebook, outDir string
	for i, a := range cmd.Args {
		switch {
		case strings.HasSuffix(a, ".ipynb"):
			notebook = a
		case a == "--output-dir" && i+1 < len(cmd.Args):
			outDir = cmd.Args[i+1]
		}
	}
	name := strings.TrimSuffix(filepath.Base(notebook), ".ipynb")
	if s.fail[name] {
		res.ExitCode = 1
		res.Err = errors.New("exit status 1")
		return res
	}
	if err := os.WriteFile(filepath.Join(outDir, name+".md"), []byte("# "+name+"\n"), 0o644); err != nil {
		res.Err = err
	}
	return res
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newProject lays out notebooks/{intro/a,guide/b}.ipynb plus the default assets.
func newProject(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "static", "js", "app.js"), "")
	writeFile(t, filepath.Join(root, "static", "css", "site.css"), "")
	writeFile(t, filepath.Join(root, "notebooks", "img", "logo.png"), "png")
	writeFile(t, filepath.Join(root, "notebooks", "index.md"), "# Home\n")
	writeFile(t, filepath.Join(root, "notebooks", "intro", "a.ipynb"), "{}")
	writeFile(t, filepath.Join(root, "notebooks", "guide", "b.ipynb"), "{}")

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
