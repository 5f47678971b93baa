package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/nbdocs/internal/config"
	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/notebooks"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct{}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return RunDiscover(cfg, g.out())
}

// RunDiscover prints assets, sections and notebooks with their target pages.
// Nothing is written to disk.
func RunDiscover(cfg *config.Config, out io.Writer) error {
	sections, err := notebooks.NewDiscovery(cfg.Source.Root, cfg.Source.Extension).Discover()
	if err != nil {
		if errors.Is(err, notebooks.ErrSourceRootNotFound) {
			return ferrors.NotFoundError("notebook source root not found").
				WithCause(err).
				WithContext("path", cfg.Source.Root).
				Build()
		}
		return ferrors.FileSystemError("failed to discover notebooks").WithCause(err).Build()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ASSET\tTARGET\tSTATUS")
	for _, a := range cfg.Assets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Source, a.Target, dirStatus(a.Source))
	}
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", cfg.Source.IndexPath(), cfg.Source.Index, fileStatus(cfg.Source.IndexPath()))
	_, _ = fmt.Fprintln(tw)

	_, _ = fmt.Fprintln(tw, "SECTION\tNOTEBOOK\tPAGE")
	for _, s := range sections {
		if len(s.Notebooks) == 0 {
			_, _ = fmt.Fprintf(tw, "%s\t-\t(no notebooks)\n", s.Name)
			continue
		}
		for _, nb := range s.Notebooks {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, nb.Path, nb.MarkdownPath(cfg.Output.Directory))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\n%d sections, %d notebooks\n", len(sections), len(notebooks.All(sections)))
	return nil
}

func dirStatus(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	case err != nil:
		return "error"
	case !info.IsDir():
		return "not a directory"
	default:
		return "ok"
	}
}

func fileStatus(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	case err != nil:
		return "error"
	case info.IsDir():
		return "is a directory"
	default:
		return "ok"
	}
}
