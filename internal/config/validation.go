package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

var knownPlaceholders = []string{PlaceholderNotebook, PlaceholderOutputDir, PlaceholderImagesDir}

// Validate checks a defaulted configuration. It guards the destructive output
// reset: the output directory may never contain the notebook tree or an asset source.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validatePaths,
		validateAssets,
		validateConverter,
		validateSite,
		validateTimestamp,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(msg string, args ...any) error {
	return ferrors.ValidationError(fmt.Sprintf(msg, args...)).Build()
}

func validatePaths(cfg *Config) error {
	out := filepath.Clean(cfg.Output.Directory)
	if out == "." || out == string(filepath.Separator) {
		return invalid("output.directory %q would remove the working directory or filesystem root", cfg.Output.Directory)
	}
	if cfg.Source.Root == "" {
		return invalid("source.root must not be empty")
	}
	if within(out, cfg.Source.Root) {
		return invalid("output.directory %q contains source.root %q", cfg.Output.Directory, cfg.Source.Root)
	}
	if within(cfg.Source.Root, out) {
		return invalid("output.directory %q lies inside source.root %q", cfg.Output.Directory, cfg.Source.Root)
	}
	if !filepath.IsLocal(cfg.Source.Index) {
		return invalid("source.index %q must be a relative path inside source.root", cfg.Source.Index)
	}
	if !strings.HasPrefix(cfg.Source.Extension, ".") || len(cfg.Source.Extension) < 2 {
		return invalid("source.extension %q must start with a dot", cfg.Source.Extension)
	}
	return nil
}

func validateAssets(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Assets))
	for i, a := range cfg.Assets {
		if a.Source == "" || a.Target == "" {
			return invalid("assets[%d]: source and target are required", i)
		}
		if !filepath.IsLocal(a.Target) {
			return invalid("assets[%d]: target %q must stay inside the output directory", i, a.Target)
		}
		if within(cfg.Output.Directory, a.Source) {
			return invalid("assets[%d]: source %q lies inside the output directory", i, a.Source)
		}
		key := filepath.Clean(a.Target)
		if seen[key] {
			return invalid("assets[%d]: duplicate target %q", i, a.Target)
		}
		seen[key] = true
	}
	return nil
}

func validateConverter(cfg *Config) error {
	if len(cfg.Converter.Command) == 0 || cfg.Converter.Command[0] == "" {
		return invalid("converter.command must name an executable")
	}
	referencesNotebook := false
	for _, arg := range cfg.Converter.Command {
		for _, ph := range placeholderPattern.FindAllString(arg, -1) {
			if !slices.Contains(knownPlaceholders, ph) {
				return invalid("converter.command: unknown placeholder %s (known: %s)", ph, strings.Join(knownPlaceholders, " "))
			}
			if ph == PlaceholderNotebook {
				referencesNotebook = true
			}
		}
	}
	if !referencesNotebook {
		return invalid("converter.command must reference %s", PlaceholderNotebook)
	}
	if !filepath.IsLocal(cfg.Converter.ImagesDir) {
		return invalid("converter.images_dir %q must be a relative directory name", cfg.Converter.ImagesDir)
	}
	return nil
}

func validateSite(cfg *Config) error {
	if cfg.Site.Skip {
		return nil
	}
	if len(cfg.Site.Command) == 0 || cfg.Site.Command[0] == "" {
		return invalid("site.command must name an executable (or set site.skip)")
	}
	return nil
}

func validateTimestamp(cfg *Config) error {
	if strings.TrimSpace(cfg.Timestamp.Layout) == "" {
		return invalid("timestamp.layout must not be empty")
	}
	if _, err := cfg.Timestamp.LoadLocation(); err != nil {
		return ferrors.ValidationError("timestamp.location is not a valid time zone").WithCause(err).Build()
	}
	return nil
}

// LoadLocation resolves the configured zone; empty or "Local" means local time.
func (t TimestampConfig) LoadLocation() (*time.Location, error) {
	if t.Location == "" || strings.EqualFold(t.Location, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(t.Location)
}

// within reports whether path equals parent or lies beneath it. Both paths
// are made absolute first so relative and absolute spellings compare; a path
// that cannot be resolved counts as within.
func within(parent, path string) bool {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return true
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(absParent, absPath)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
