package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/metrics"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
	"git.home.luguber.info/inful/nbdocs/internal/workspace"
)

// Builder rebuilds the documentation output from configuration.
type Builder struct {
	cfg      *config.Config
	runner   runner.Runner
	recorder metrics.Recorder
	now      func() time.Time
	strict   bool
	skipSite bool
}

// NewBuilder creates a Builder that runs external commands through r.
func NewBuilder(cfg *config.Config, r runner.Runner) *Builder {
	return &Builder{
		cfg:      cfg,
		runner:   r,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		strict:   cfg.Build.FailurePolicy.IsStrict(),
		skipSite: cfg.Site.Skip,
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithClock overrides the clock used for the index timestamp.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// WithStrict forces the strict failure policy regardless of configuration.
func (b *Builder) WithStrict(strict bool) *Builder {
	b.strict = b.strict || strict
	return b
}

// WithSkipSite disables the site-builder step.
func (b *Builder) WithSkipSite(skip bool) *Builder {
	b.skipSite = b.skipSite || skip
	return b
}

func (b *Builder) stages() []StageDef {
	return NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageCopyAssets, stageCopyAssets).
		Add(StageConvertNotebooks, stageConvertNotebooks).
		Add(StageCopyIndex, stageCopyIndex).
		Add(StageStampIndex, stageStampIndex).
		AddIf(!b.skipSite, StageBuildSite, stageBuildSite).
		Add(StageCollectTitles, stageCollectTitles).
		Build()
}

// Build runs the full pipeline. The returned report is always non-nil and
// finished; the error is the terminal *StageError when the build aborted.
// When build.report_dir is configured the report is persisted either way.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	report := NewBuildReport()
	report.SiteSkipped = b.skipSite
	report.FailurePolicy = string(config.FailurePolicyIgnore)
	if b.strict {
		report.FailurePolicy = string(config.FailurePolicyStrict)
	}

	slog.Info("Starting build",
		logfields.BuildID(report.BuildID),
		logfields.Path(b.cfg.Output.Directory),
		logfields.Policy(report.FailurePolicy))

	bs := &BuildState{
		Config:    b.cfg,
		Workspace: workspace.NewManager(b.cfg.Output.Directory),
		Runner:    b.runner,
		Recorder:  b.recorder,
		Report:    report,
		Strict:    b.strict,
		Now:       b.now,
	}
	err := runStages(ctx, bs, b.stages())

	report.Finish()
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))

	attrs := []any{
		logfields.BuildID(report.BuildID),
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
		slog.Int("converted", report.NotebooksConverted),
		slog.Int("failed", report.NotebooksFailed),
	}
	if err != nil {
		slog.Error("Build failed", append(attrs, logfields.Error(err))...)
	} else {
		slog.Info("Build finished", attrs...)
	}

	if dir := b.cfg.Build.ReportDir; dir != "" {
		if perr := report.Persist(dir); perr != nil {
			slog.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(perr))
		}
	}
	return report, err
}
