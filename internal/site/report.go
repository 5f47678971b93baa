package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/nbdocs/internal/version"
)

// Report file names written by Persist.
const (
	ReportJSONFile = "build-report.json"
	ReportTextFile = "build-report.txt"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
// Codes are a stable contract: append only.
type ReportIssueCode string

const (
	IssueAssetMissing      ReportIssueCode = "ASSET_MISSING"
	IssueIndexMissing      ReportIssueCode = "INDEX_MISSING"
	IssueSourceMissing     ReportIssueCode = "SOURCE_MISSING"
	IssueFileSystem        ReportIssueCode = "FILESYSTEM_ERROR"
	IssueConfigInvalid     ReportIssueCode = "CONFIG_INVALID"
	IssueConversionFailure ReportIssueCode = "CONVERSION_FAILED"
	IssueSiteBuildFailure  ReportIssueCode = "SITE_BUILD_FAILED"
	IssuePageUnreadable    ReportIssueCode = "PAGE_UNREADABLE"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured entry describing a discrete problem encountered.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Stage    StageName       `json:"stage"`
	Severity IssueSeverity   `json:"severity"`
	Message  string          `json:"message"`
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// PageSummary describes one converted markdown page.
type PageSummary struct {
	Section  string `json:"section"`
	Notebook string `json:"notebook"`
	Path     string `json:"path"`
	Title    string `json:"title,omitempty"`
	Images   int    `json:"images"`
}

// BuildReport captures what happened during one build.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion (at most one)
	Warnings        []error // non-fatal stage errors
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Issues          []ReportIssue

	FailurePolicy      string
	AssetsCopied       int
	Sections           int
	NotebooksFound     int
	NotebooksConverted int
	NotebooksFailed    int
	Pages              []PageSummary
	IndexStamp         string // timestamp appended to the index
	SiteBuilt          bool   // true if the site builder exited cleanly
	SiteSkipped        bool
	Outcome            BuildOutcome
	NbdocsVersion      string
}

// NewBuildReport constructs a report with a fresh build id.
func NewBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		NbdocsVersion:   version.Version,
	}
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings slices.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, err error) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg})
	if err == nil {
		return
	}
	switch severity {
	case SeverityError:
		r.Errors = append(r.Errors, err)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, err)
	}
}

// Finish sets the end time of the report and derives the outcome.
func (r *BuildReport) Finish() {
	r.End = time.Now()
	r.DeriveOutcome()
}

// Duration returns the wall time between Start and End.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build=%s sections=%d notebooks=%d converted=%d failed=%d site_built=%t duration=%s errors=%d warnings=%d outcome=%s",
		r.BuildID, r.Sections, r.NotebooksFound, r.NotebooksConverted, r.NotebooksFailed, r.SiteBuilt,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Persist writes the report atomically into the provided root directory.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, ReportJSONFile), jb); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, ReportTextFile), []byte(r.Summary()+"\n")); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SanitizedCopy returns a copy with error fields converted to strings for JSON friendliness.
func (r *BuildReport) SanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	durations := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = v.Milliseconds()
	}
	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}
	pages := r.Pages
	if pages == nil {
		pages = []PageSummary{}
	}

	s := &BuildReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Start:              r.Start,
		End:                r.End,
		Errors:             make([]string, len(r.Errors)),
		Warnings:           make([]string, len(r.Warnings)),
		StageDurationsMS:   durations,
		StageErrorKinds:    sek,
		StageCounts:        stageCounts,
		Issues:             issues,
		FailurePolicy:      r.FailurePolicy,
		AssetsCopied:       r.AssetsCopied,
		Sections:           r.Sections,
		NotebooksFound:     r.NotebooksFound,
		NotebooksConverted: r.NotebooksConverted,
		NotebooksFailed:    r.NotebooksFailed,
		Pages:              pages,
		IndexStamp:         r.IndexStamp,
		SiteBuilt:          r.SiteBuilt,
		SiteSkipped:        r.SiteSkipped,
		Outcome:            string(r.Outcome),
		NbdocsVersion:      r.NbdocsVersion,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion      int                   `json:"schema_version"`
	BuildID            string                `json:"build_id"`
	Start              time.Time             `json:"start"`
	End                time.Time             `json:"end"`
	Errors             []string              `json:"errors"`
	Warnings           []string              `json:"warnings"`
	StageDurationsMS   map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds    map[string]string     `json:"stage_error_kinds"`
	StageCounts        map[string]StageCount `json:"stage_counts"`
	Issues             []ReportIssue         `json:"issues"`
	FailurePolicy      string                `json:"failure_policy"`
	AssetsCopied       int                   `json:"assets_copied"`
	Sections           int                   `json:"sections"`
	NotebooksFound     int                   `json:"notebooks_found"`
	NotebooksConverted int                   `json:"notebooks_converted"`
	NotebooksFailed    int                   `json:"notebooks_failed"`
	Pages              []PageSummary         `json:"pages"`
	IndexStamp         string                `json:"index_stamp,omitempty"`
	SiteBuilt          bool                  `json:"site_built"`
	SiteSkipped        bool                  `json:"site_skipped,omitempty"`
	Outcome            string                `json:"outcome"`
	NbdocsVersion      string                `json:"nbdocs_version,omitempty"`
}
