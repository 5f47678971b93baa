package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/workspace"
)

// stagePrepareOutput removes the output directory and recreates it empty.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	if err := bs.Workspace.Reset(); err != nil {
		return fsFailure(StagePrepareOutput, "failed to prepare output directory", err)
	}
	return nil
}

// stageCopyAssets copies every configured asset directory into the output.
// A missing source aborts the build before any conversion runs.
func stageCopyAssets(ctx context.Context, bs *BuildState) error {
	for _, asset := range bs.Config.Assets {
		if err := bs.canceled(ctx, StageCopyAssets); err != nil {
			return err
		}
		dst, err := bs.Workspace.CopyTree(asset.Source, asset.Target)
		if err != nil {
			if errors.Is(err, workspace.ErrSourceMissing) {
				err = fmt.Errorf("%w: %s: %w", ErrAssetMissing, asset.Source, err)
			}
			return fsFailure(StageCopyAssets, "failed to copy asset directory", err)
		}
		bs.Report.AssetsCopied++
		slog.Debug("Copied asset directory", logfields.Source(asset.Source), logfields.Target(dst))
	}
	return nil
}
