// Package history keeps a log of build summaries in SQLite.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/site"
)

// Record summarises one finished build.
type Record struct {
	ID                 int64
	BuildID            string
	Start              time.Time
	Duration           time.Duration
	Outcome            string
	FailurePolicy      string
	NotebooksFound     int
	NotebooksConverted int
	NotebooksFailed    int
	SiteBuilt          bool
	IssueCodes         []string
}

// Store persists build records.
type Store interface {
	Record(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// FromReport builds a Record from a finished build report.
func FromReport(r *site.BuildReport) Record {
	codes := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		codes = append(codes, string(issue.Code))
	}
	return Record{
		BuildID:            r.BuildID,
		Start:              r.Start,
		Duration:           r.Duration(),
		Outcome:            string(r.Outcome),
		FailurePolicy:      r.FailurePolicy,
		NotebooksFound:     r.NotebooksFound,
		NotebooksConverted: r.NotebooksConverted,
		NotebooksFailed:    r.NotebooksFailed,
		SiteBuilt:          r.SiteBuilt,
		IssueCodes:         codes,
	}
}
