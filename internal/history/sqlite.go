package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.HistoryError("could not open build history database").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.HistoryError("failed to initialize build history schema").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failure_policy TEXT NOT NULL,
		notebooks_found INTEGER NOT NULL,
		notebooks_converted INTEGER NOT NULL,
		notebooks_failed INTEGER NOT NULL,
		site_built INTEGER NOT NULL,
		issues TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a build summary.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issues, err := json.Marshal(rec.IssueCodes)
	if err != nil {
		return fmt.Errorf("marshal issue codes: %w", err)
	}
	siteBuilt := 0
	if rec.SiteBuilt {
		siteBuilt = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, outcome, failure_policy,
			notebooks_found, notebooks_converted, notebooks_failed, site_built, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Start.UnixMilli(), rec.Duration.Milliseconds(), rec.Outcome, rec.FailurePolicy,
		rec.NotebooksFound, rec.NotebooksConverted, rec.NotebooksFailed, siteBuilt, string(issues),
	)
	if err != nil {
		return ferrors.HistoryError("failed to record build").
			WithCause(err).
			WithContext("build_id", rec.BuildID).
			Build()
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, outcome, failure_policy,
			notebooks_found, notebooks_converted, notebooks_failed, site_built, issues
		FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ferrors.HistoryError("failed to query build history").WithCause(err).Build()
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec                 Record
			startedMS, duration int64
			siteBuilt           int
			issues              sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.BuildID, &startedMS, &duration, &rec.Outcome, &rec.FailurePolicy,
			&rec.NotebooksFound, &rec.NotebooksConverted, &rec.NotebooksFailed, &siteBuilt, &issues); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Start = time.UnixMilli(startedMS)
		rec.Duration = time.Duration(duration) * time.Millisecond
		rec.SiteBuilt = siteBuilt != 0
		if issues.Valid && issues.String != "" {
			if err := json.Unmarshal([]byte(issues.String), &rec.IssueCodes); err != nil {
				return nil, fmt.Errorf("unmarshal issue codes: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
