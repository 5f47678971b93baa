package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
	"git.home.luguber.info/inful/nbdocs/internal/notebooks"
	"git.home.luguber.info/inful/nbdocs/internal/runner"
)

// stageConvertNotebooks runs the converter once per discovered notebook.
// Sections without notebooks get no invocation and no output directory.
func stageConvertNotebooks(ctx context.Context, bs *BuildState) error {
	sections, err := notebooks.NewDiscovery(bs.Config.Source.Root, bs.Config.Source.Extension).Discover()
	if err != nil {
		return fsFailure(StageConvertNotebooks, "failed to discover notebooks", err)
	}
	bs.Sections = sections
	bs.Report.Sections = len(sections)
	bs.Report.NotebooksFound = len(notebooks.All(sections))
	bs.Recorder.SetNotebooksDiscovered(bs.Report.NotebooksFound)

	for _, section := range sections {
		if len(section.Notebooks) == 0 {
			continue
		}
		outDir, err := bs.Workspace.CreateSubdir(section.Name)
		if err != nil {
			return fsFailure(StageConvertNotebooks, "failed to create section output directory", err)
		}
		for _, nb := range section.Notebooks {
			if err := bs.canceled(ctx, StageConvertNotebooks); err != nil {
				return err
			}
			res := bs.Runner.Run(ctx, converterCommand(bs.Config.Converter, nb, outDir))
			bs.Recorder.ObserveConversionDuration(section.Name, res.Duration, !res.Failed())
			if !res.Failed() {
				bs.Report.NotebooksConverted++
				slog.Info("Converted notebook", logfields.Notebook(nb.Path), logfields.Section(section.Name),
					logfields.DurationMS(float64(res.Duration.Milliseconds())))
				continue
			}
			if err := bs.canceled(ctx, StageConvertNotebooks); err != nil {
				return err
			}
			bs.Report.NotebooksFailed++
			cause := fmt.Errorf("%w: %s: %w", ErrConversionFailed, nb.Path, res.Err)
			if bs.Strict {
				return newFatalStageError(StageConvertNotebooks, ferrors.ConvertError("notebook conversion failed").
					Fatal().
					WithCause(cause).
					WithContext("notebook", nb.Path).
					WithContext("exit_code", res.ExitCode).
					WithContext("output", res.Output()).
					Build())
			}
			bs.Report.AddIssue(IssueConversionFailure, StageConvertNotebooks, SeverityWarning, cause.Error(), nil)
			slog.Warn("Notebook conversion failed, continuing",
				logfields.Notebook(nb.Path),
				logfields.ExitCode(res.ExitCode),
				logfields.Error(res.Err))
		}
	}

	if bs.Report.NotebooksFailed > 0 {
		return newWarnStageError(StageConvertNotebooks,
			fmt.Errorf("%w: %d of %d notebooks", ErrConversionFailed, bs.Report.NotebooksFailed, bs.Report.NotebooksFound))
	}
	return nil
}

func converterCommand(cfg config.ConverterConfig, nb notebooks.Notebook, outDir string) runner.Command {
	argv := runner.Expand(cfg.Command, map[string]string{
		config.PlaceholderNotebook:  nb.Path,
		config.PlaceholderOutputDir: outDir,
		config.PlaceholderImagesDir: cfg.ImagesDir,
	})
	return runner.FromArgv(argv, "")
}
