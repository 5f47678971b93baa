package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/workspace"
)

func stageCopyIndex(_ context.Context, bs *BuildState) error {
	src := bs.Config.Source.IndexPath()
	dst, err := bs.Workspace.CopyFileInto(src)
	if err != nil {
		if errors.Is(err, workspace.ErrSourceMissing) {
			err = fmt.Errorf("%w: %s: %w", ErrIndexMissing, src, err)
		}
		return fsFailure(StageCopyIndex, "failed to copy index document", err)
	}
	bs.IndexPath = dst
	return nil
}

// stageStampIndex appends the generation timestamp to the copied index.
func stageStampIndex(_ context.Context, bs *BuildState) error {
	loc, err := bs.Config.Timestamp.LoadLocation()
	if err != nil {
		return newFatalStageError(StageStampIndex, ferrors.ConfigError("invalid timestamp location").
			Fatal().
			WithCause(err).
			WithContext("location", bs.Config.Timestamp.Location).
			Build())
	}
	stamp := FormatTimestamp(bs.Now(), bs.Config.Timestamp.Layout, bs.Config.Timestamp.ZoneLabel(), loc)
	if err := AppendStamp(bs.IndexPath, stamp); err != nil {
		return fsFailure(StageStampIndex, "failed to stamp index document", err)
	}
	bs.Report.IndexStamp = stamp
	slog.Debug("Stamped index", logfields.Path(bs.IndexPath), slog.String("stamp", stamp))
	return nil
}
