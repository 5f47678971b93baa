// Package notebooks finds the notebooks to convert. The source tree is
// scanned one level deep: each immediate subdirectory is a section and only
// files directly inside it are considered.
package notebooks

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/nbdocs/internal/logfields"
)

// ErrSourceRootNotFound indicates the configured notebook tree does not exist.
var ErrSourceRootNotFound = errors.New("notebook source root not found")

// Notebook is a single discovered notebook file.
type Notebook struct {
	Path    string // path to the notebook file
	Section string // name of the containing subdirectory
	Name    string // file name without extension
}

// MarkdownPath returns where the converted page lands below outputRoot.
func (n Notebook) MarkdownPath(outputRoot string) string {
	return filepath.Join(outputRoot, n.Section, n.Name+".md")
}

// Section is an immediate subdirectory of the source tree.
type Section struct {
	Name      string
	Dir       string
	Notebooks []Notebook
}

// Discovery scans a notebook source tree.
type Discovery struct {
	root      string
	extension string
}

// NewDiscovery creates a discovery for notebooks with the given extension (e.g. ".ipynb").
func NewDiscovery(root, extension string) *Discovery {
	return &Discovery{root: root, extension: extension}
}

// Discover returns every section in lexical order, each with its notebooks in
// lexical order. Hidden entries are skipped. Sections without notebooks are
// included with an empty Notebooks slice.
func (d *Discovery) Discover() ([]Section, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceRootNotFound, d.root)
		}
		return nil, fmt.Errorf("read source root %s: %w", d.root, err)
	}

	var sections []Section
	for _, entry := range entries {
		if isHidden(entry.Name()) || !isDir(d.root, entry) {
			continue
		}
		section := Section{Name: entry.Name(), Dir: filepath.Join(d.root, entry.Name())}
		nbs, err := d.scanSection(section)
		if err != nil {
			return nil, err
		}
		section.Notebooks = nbs
		sections = append(sections, section)
		slog.Debug("Discovered section", logfields.Section(section.Name), slog.Int("notebooks", len(nbs)))
	}
	return sections, nil
}

func (d *Discovery) scanSection(section Section) ([]Notebook, error) {
	entries, err := os.ReadDir(section.Dir)
	if err != nil {
		return nil, fmt.Errorf("read section %s: %w", section.Dir, err)
	}

	nbs := make([]Notebook, 0)
	for _, entry := range entries {
		name := entry.Name()
		if isHidden(name) || filepath.Ext(name) != d.extension || isDir(section.Dir, entry) {
			continue
		}
		nbs = append(nbs, Notebook{
			Path:    filepath.Join(section.Dir, name),
			Section: section.Name,
			Name:    strings.TrimSuffix(name, d.extension),
		})
	}
	return nbs, nil
}

// All flattens sections into their notebooks, preserving order.
func All(sections []Section) []Notebook {
	var out []Notebook
	for _, s := range sections {
		out = append(out, s.Notebooks...)
	}
	return out
}

// isDir reports whether entry is a directory, following symlinks. A dangling
// link is not a directory.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
