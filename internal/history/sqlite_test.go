package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/site"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	base := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)

	for i, outcome := range []string{"success", "warning", "failed"} {
		err := store.Record(ctx, Record{
			BuildID:            "build-" + outcome,
			Start:              base.Add(time.Duration(i) * time.Minute),
			Duration:           1500 * time.Millisecond,
			Outcome:            outcome,
			FailurePolicy:      "ignore",
			NotebooksFound:     3,
			NotebooksConverted: 3 - i,
			NotebooksFailed:    i,
			SiteBuilt:          i < 2,
			IssueCodes:         []string{"CONVERSION_FAILED"},
		})
		require.NoError(t, err)
	}

	recs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "build-failed", recs[0].BuildID, "newest first")
	assert.Equal(t, "build-warning", recs[1].BuildID)
	assert.Equal(t, 2, recs[0].NotebooksFailed)
	assert.False(t, recs[0].SiteBuilt)
	assert.True(t, recs[1].SiteBuilt)
	assert.Equal(t, 1500*time.Millisecond, recs[0].Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(recs[0].Start))
	assert.Equal(t, []string{"CONVERSION_FAILED"}, recs[0].IssueCodes)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_DuplicateBuildID(t *testing.T) {
	store := newMemoryStore(t)
	rec := Record{BuildID: "same", Start: time.Now(), Outcome: "success", FailurePolicy: "ignore"}
	require.NoError(t, store.Record(t.Context(), rec))

	err := store.Record(t.Context(), rec)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHistory))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Record{BuildID: "b1", Start: time.Now(), Outcome: "success", FailurePolicy: "strict"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recs, err := reopened.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "strict", recs[0].FailurePolicy)
	assert.Empty(t, recs[0].IssueCodes)
}

func TestSQLiteStore_BadPath(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHistory))
}

func TestFromReport(t *testing.T) {
	r := site.NewBuildReport()
	r.FailurePolicy = "ignore"
	r.NotebooksFound = 4
	r.NotebooksConverted = 3
	r.NotebooksFailed = 1
	r.SiteBuilt = true
	r.AddIssue(site.IssueConversionFailure, site.StageConvertNotebooks, site.SeverityWarning, "x", errors.New("x"))
	r.Finish()

	rec := FromReport(r)
	assert.Equal(t, r.BuildID, rec.BuildID)
	assert.Equal(t, "warning", rec.Outcome)
	assert.Equal(t, 3, rec.NotebooksConverted)
	assert.True(t, rec.SiteBuilt)
	assert.Equal(t, []string{"CONVERSION_FAILED"}, rec.IssueCodes)
}
