package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
	"git.home.luguber.info/inful/nbdocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
	Strict   bool          `help:"Abort each build on the first converter or site-builder failure"`
	SkipSite bool          `name:"skip-site" help:"Convert notebooks but do not run the site builder"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	session, err := newBuildSession(cfg, runner.NewExecRunner(), BuildOptions{Strict: w.Strict, SkipSite: w.SkipSite})
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	out := g.out()
	watcher, err := watch.New(watchRoots(cfg), func(ctx context.Context) error {
		report, err := session.Run(ctx)
		printSummary(out, report)
		return err
	},
		watch.WithDebounce(w.Debounce),
		watch.WithIgnore(cfg.Output.Directory, cfg.Build.ReportDir),
	)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// watchRoots returns the notebook tree plus every asset directory.
func watchRoots(cfg *config.Config) []string {
	roots := []string{cfg.Source.Root}
	for _, a := range cfg.Assets {
		roots = append(roots, a.Source)
	}
	return roots
}
