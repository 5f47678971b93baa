package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	"git.home.luguber.info/inful/nbdocs/internal/history"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/metrics"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
	"git.home.luguber.info/inful/nbdocs/internal/site"
)

// BuildOptions are command-line overrides for a build.
type BuildOptions struct {
	Strict   bool
	SkipSite bool
}

// buildSession owns the per-process build dependencies so that repeated
// builds (watch mode) share one metrics registry and history database.
type buildSession struct {
	cfg      *config.Config
	runner   runner.Runner
	opts     BuildOptions
	recorder *metrics.PrometheusRecorder // nil unless build.metrics_file is set
	history  history.Store               // nil unless build.history_db is set
}

func newBuildSession(cfg *config.Config, r runner.Runner, opts BuildOptions) (*buildSession, error) {
	s := &buildSession{cfg: cfg, runner: r, opts: opts}
	if cfg.Build.MetricsFile != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
	}
	if cfg.Build.HistoryDB != "" {
		store, err := history.NewSQLiteStore(cfg.Build.HistoryDB)
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	return s, nil
}

// Run performs one full build and records its side artifacts.
func (s *buildSession) Run(ctx context.Context) (*site.BuildReport, error) {
	builder := site.NewBuilder(s.cfg, s.runner).
		WithStrict(s.opts.Strict).
		WithSkipSite(s.opts.SkipSite)
	if s.recorder != nil {
		builder.WithRecorder(s.recorder)
	}

	report, err := builder.Build(ctx)

	if s.recorder != nil {
		if werr := s.recorder.WriteTextfile(s.cfg.Build.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(s.cfg.Build.MetricsFile), logfields.Error(werr))
		}
	}
	if s.history != nil {
		// The build context may already be canceled; recording must still happen.
		if herr := s.history.Record(context.WithoutCancel(ctx), history.FromReport(report)); herr != nil {
			slog.Warn("Failed to record build history", logfields.Error(herr))
		}
	}
	return report, err
}

func (s *buildSession) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}
