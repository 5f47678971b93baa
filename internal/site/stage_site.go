package site

import (
	"context"
	"fmt"
	"log/slog"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
)

// stageBuildSite invokes the static-site builder in the configured project directory.
func stageBuildSite(ctx context.Context, bs *BuildState) error {
	cmd := runner.FromArgv(bs.Config.Site.Command, bs.Config.Site.Dir)
	res := bs.Runner.Run(ctx, cmd)
	if !res.Failed() {
		bs.Report.SiteBuilt = true
		slog.Info("Site built", logfields.Command(cmd.String()), logfields.DurationMS(float64(res.Duration.Milliseconds())))
		return nil
	}
	if err := bs.canceled(ctx, StageBuildSite); err != nil {
		return err
	}

	cause := fmt.Errorf("%w: %w", ErrSiteBuildFailed, res.Err)
	if bs.Strict {
		return newFatalStageError(StageBuildSite, ferrors.SiteError("site builder failed").
			Fatal().
			WithCause(cause).
			WithContext("command", cmd.String()).
			WithContext("exit_code", res.ExitCode).
			WithContext("output", res.Output()).
			Build())
	}
	bs.Report.AddIssue(IssueSiteBuildFailure, StageBuildSite, SeverityWarning, cause.Error(), nil)
	slog.Warn("Site builder failed, continuing", logfields.Command(cmd.String()), logfields.ExitCode(res.ExitCode), logfields.Error(res.Err))
	return newWarnStageError(StageBuildSite, cause)
}
