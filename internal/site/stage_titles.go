package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"git.home.luguber.info/inful/nbdocs/internal/markdown"
	"git.home.luguber.info/inful/nbdocs/internal/notebooks"
)

// stageCollectTitles records the first heading of every converted page.
// Notebooks whose conversion produced no file are left out.
func stageCollectTitles(ctx context.Context, bs *BuildState) error {
	outputRoot := bs.Workspace.GetPath()
	unreadable := 0
	for _, nb := range notebooks.All(bs.Sections) {
		if err := bs.canceled(ctx, StageCollectTitles); err != nil {
			return err
		}
		path := nb.MarkdownPath(outputRoot)
		body, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			unreadable++
			bs.Report.AddIssue(IssuePageUnreadable, StageCollectTitles, SeverityWarning, err.Error(), nil)
			continue
		}
		page := markdown.Inspect(body)
		bs.Report.Pages = append(bs.Report.Pages, PageSummary{
			Section:  nb.Section,
			Notebook: nb.Name,
			Path:     path,
			Title:    page.Title,
			Images:   len(page.Images()),
		})
	}
	if unreadable > 0 {
		return newWarnStageError(StageCollectTitles, fmt.Errorf("%d converted pages could not be read", unreadable))
	}
	return nil
}
