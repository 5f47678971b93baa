package config

import (
	"path/filepath"
	"slices"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
)

// Placeholders recognised in converter command arguments.
const (
	PlaceholderNotebook  = "{notebook}"
	PlaceholderOutputDir = "{output_dir}"
	PlaceholderImagesDir = "{images_dir}"
)

// Built-in defaults matching the conventional repository layout.
const (
	DefaultSourceRoot      = "notebooks"
	DefaultIndex           = "index.md"
	DefaultExtension       = ".ipynb"
	DefaultOutputDirectory = "docs"
	DefaultImagesDir       = "img"
	DefaultTimestampLayout = "January 02 2006 15:04"
	DefaultTimestampLabel  = "PST"
)

// DefaultConverterCommand renders a notebook to markdown with jupyter nbconvert.
func DefaultConverterCommand() []string {
	return []string{
		"jupyter", "nbconvert", "--to", "markdown", PlaceholderNotebook,
		"--output-dir", PlaceholderOutputDir,
		"--NbConvertApp.output_files_dir=" + PlaceholderImagesDir,
	}
}

// DefaultSiteCommand builds the site with mkdocs, reading mkdocs.yml from the working directory.
func DefaultSiteCommand() []string {
	return []string{"mkdocs", "build"}
}

// DefaultAssets returns the script, style and image directories copied into the output.
func DefaultAssets() []AssetConfig {
	return []AssetConfig{
		{Source: filepath.Join("static", "js"), Target: "js"},
		{Source: filepath.Join("static", "css"), Target: "css"},
		{Source: filepath.Join(DefaultSourceRoot, "img"), Target: "img"},
	}
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Source.Root == "" {
		cfg.Source.Root = DefaultSourceRoot
	}
	if cfg.Source.Index == "" {
		cfg.Source.Index = DefaultIndex
	}
	if cfg.Source.Extension == "" {
		cfg.Source.Extension = DefaultExtension
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	// nil means omitted; an explicit empty list disables asset copying.
	if cfg.Assets == nil {
		cfg.Assets = DefaultAssets()
	}
	return nil
}

type commandDefaults struct{}

func (commandDefaults) Domain() string { return "commands" }

func (commandDefaults) ApplyDefaults(cfg *Config) error {
	if len(cfg.Converter.Command) == 0 {
		cfg.Converter.Command = DefaultConverterCommand()
	}
	if cfg.Converter.ImagesDir == "" {
		cfg.Converter.ImagesDir = DefaultImagesDir
	}
	if len(cfg.Site.Command) == 0 {
		cfg.Site.Command = DefaultSiteCommand()
	}
	if cfg.Site.Dir == "" {
		cfg.Site.Dir = "."
	}
	return nil
}

type timestampDefaults struct{}

func (timestampDefaults) Domain() string { return "timestamp" }

func (timestampDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Timestamp.Layout == "" {
		cfg.Timestamp.Layout = DefaultTimestampLayout
	}
	// Only an omitted label gets the default; label: "" turns it off.
	if cfg.Timestamp.Label == nil {
		label := DefaultTimestampLabel
		cfg.Timestamp.Label = &label
	}
	return nil
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) error {
	policy, err := failurePolicyNormalizer.NormalizeWithError(string(cfg.Build.FailurePolicy))
	if err != nil {
		return ferrors.ConfigError("invalid build.failure_policy").WithCause(err).Build()
	}
	cfg.Build.FailurePolicy = policy

	level, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level))
	if err != nil {
		return ferrors.ConfigError("invalid logging.level").WithCause(err).Build()
	}
	cfg.Logging.Level = level

	format, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format))
	if err != nil {
		return ferrors.ConfigError("invalid logging.format").WithCause(err).Build()
	}
	cfg.Logging.Format = format
	return nil
}

var defaultAppliers = []DefaultApplier{
	sourceDefaults{},
	commandDefaults{},
	timestampDefaults{},
	buildDefaults{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	cfg.Converter.Command = slices.Clone(cfg.Converter.Command)
	cfg.Site.Command = slices.Clone(cfg.Site.Command)
	return nil
}
