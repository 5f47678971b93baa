package commands

import (
	"context"
	"fmt"
	"io"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
	"git.home.luguber.info/inful/nbdocs/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Strict   bool `help:"Abort on the first converter or site-builder failure (overrides build.failure_policy)"`
	SkipSite bool `name:"skip-site" help:"Convert notebooks but do not run the site builder"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return RunBuild(ctx, cfg, runner.NewExecRunner(), BuildOptions{Strict: b.Strict, SkipSite: b.SkipSite}, g.out())
}

// RunBuild performs a single build and prints its summary to out.
func RunBuild(ctx context.Context, cfg *config.Config, r runner.Runner, opts BuildOptions, out io.Writer) error {
	session, err := newBuildSession(cfg, r, opts)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	report, err := session.Run(ctx)
	printSummary(out, report)
	return err
}

func printSummary(out io.Writer, report *site.BuildReport) {
	_, _ = fmt.Fprintf(out, "Build %s: %d/%d notebooks converted", report.Outcome, report.NotebooksConverted, report.NotebooksFound)
	if report.NotebooksFailed > 0 {
		_, _ = fmt.Fprintf(out, ", %d failed", report.NotebooksFailed)
	}
	switch {
	case report.SiteSkipped:
		_, _ = fmt.Fprint(out, ", site build skipped")
	case report.SiteBuilt:
		_, _ = fmt.Fprint(out, ", site built")
	}
	_, _ = fmt.Fprintln(out)
	for _, issue := range report.Issues {
		_, _ = fmt.Fprintf(out, "  %s [%s] %s\n", issue.Severity, issue.Code, issue.Message)
	}
}
