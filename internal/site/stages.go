package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/metrics"
	"git.home.luguber.info/inful/nbdocs/internal/notebooks"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
	"git.home.luguber.info/inful/nbdocs/internal/workspace"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{
		Kind:  StageErrorCanceled,
		Stage: stage,
		Err:   ferrors.RuntimeError("build canceled").WithCause(err).WithContext("stage", string(stage)).Build(),
	}
}

// fsFailure classifies a file-system failure; these are always fatal.
func fsFailure(stage StageName, msg string, err error) *StageError {
	return newFatalStageError(stage, ferrors.FileSystemError(msg).
		WithCause(err).
		WithContext("stage", string(stage)).
		Build())
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Config    *config.Config
	Workspace *workspace.Manager
	Runner    runner.Runner
	Recorder  metrics.Recorder
	Report    *BuildReport
	Strict    bool
	Now       func() time.Time

	Sections  []notebooks.Section
	IndexPath string // copied index document inside the output directory
}

// canceled returns a canceled stage error once ctx is done.
func (bs *BuildState) canceled(ctx context.Context, stage StageName) error {
	if err := ctx.Err(); err != nil {
		return newCanceledStageError(stage, err)
	}
	return nil
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warnings are recorded and the build goes on.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			bs.recordFailure(st.Name, se)
			return se
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		bs.Recorder.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			bs.Report.recordStageResult(st.Name, StageResultSuccess, bs.Recorder)
			slog.Debug("Stage completed", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors are fatal by default.
			se = newFatalStageError(st.Name, err)
		}
		if se.Kind == StageErrorWarning {
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bs.Report.recordStageResult(st.Name, StageResultWarning, bs.Recorder)
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			slog.Warn("Stage completed with warnings", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			continue
		}
		bs.recordFailure(st.Name, se)
		return se
	}
	return nil
}

func (bs *BuildState) recordFailure(stage StageName, se *StageError) {
	bs.Report.StageErrorKinds[stage] = se.Kind
	result := StageResultFatal
	if se.Kind == StageErrorCanceled {
		result = StageResultCanceled
	}
	bs.Report.recordStageResult(stage, result, bs.Recorder)
	bs.Report.AddIssue(issueCodeFor(se), stage, SeverityError, se.Err.Error(), se)
}

// issueCodeFor maps a terminal stage error to its report issue code.
func issueCodeFor(se *StageError) ReportIssueCode {
	switch {
	case se.Kind == StageErrorCanceled:
		return IssueCanceled
	case errors.Is(se, ErrAssetMissing):
		return IssueAssetMissing
	case errors.Is(se, ErrIndexMissing):
		return IssueIndexMissing
	case errors.Is(se, notebooks.ErrSourceRootNotFound):
		return IssueSourceMissing
	case errors.Is(se, ErrConversionFailed):
		return IssueConversionFailure
	case errors.Is(se, ErrSiteBuildFailed):
		return IssueSiteBuildFailure
	case ferrors.HasCategory(se, ferrors.CategoryFileSystem):
		return IssueFileSystem
	case ferrors.HasCategory(se, ferrors.CategoryConfig):
		return IssueConfigInvalid
	default:
		return IssueGenericStageError
	}
}
