package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show (0 for all)" default:"10"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return RunHistory(ctx, cfg, h.Limit, g.out())
}

// RunHistory prints the most recent builds, newest first.
func RunHistory(ctx context.Context, cfg *config.Config, limit int, out io.Writer) error {
	if cfg.Build.HistoryDB == "" {
		return ferrors.ValidationError("build history is not enabled (set build.history_db)").Build()
	}
	store, err := history.NewSQLiteStore(cfg.Build.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tOUTCOME\tPOLICY\tCONVERTED\tFAILED\tSITE\tDURATION\tISSUES")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%t\t%s\t%s\n",
			r.Start.Local().Format(time.DateTime),
			shortID(r.BuildID),
			r.Outcome,
			r.FailurePolicy,
			r.NotebooksConverted, r.NotebooksFound,
			r.NotebooksFailed,
			r.SiteBuilt,
			r.Duration.Truncate(time.Millisecond),
			strings.Join(r.IssueCodes, ","),
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
