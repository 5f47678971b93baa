package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/logfields"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "nbdocs.yaml"

// Config represents the application configuration.
// Every path is interpreted relative to the invocation directory.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Output    OutputConfig    `yaml:"output"`
	Assets    []AssetConfig   `yaml:"assets"`
	Converter ConverterConfig `yaml:"converter"`
	Site      SiteConfig      `yaml:"site"`
	Timestamp TimestampConfig `yaml:"timestamp"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourceConfig locates the notebook tree and its index document.
type SourceConfig struct {
	Root      string `yaml:"root"`
	Index     string `yaml:"index"`     // relative to Root
	Extension string `yaml:"extension"` // notebook file extension, including the dot
}

// IndexPath returns the index document path.
func (s SourceConfig) IndexPath() string {
	return filepath.Join(s.Root, s.Index)
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	// Directory is removed and recreated on every build.
	Directory string `yaml:"directory"`
}

// AssetConfig copies Source into <output>/<Target> verbatim.
type AssetConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// ConverterConfig describes the external notebook-to-markdown command.
// Command arguments may reference {notebook}, {output_dir} and {images_dir}.
type ConverterConfig struct {
	Command   []string `yaml:"command"`
	ImagesDir string   `yaml:"images_dir"`
}

// SiteConfig describes the external static-site build command.
type SiteConfig struct {
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir,omitempty"` // working directory, defaults to "."
	Skip    bool     `yaml:"skip,omitempty"`
}

// TimestampConfig controls the generation stamp appended to the index.
type TimestampConfig struct {
	Layout   string  `yaml:"layout"`             // Go time layout
	Label    *string `yaml:"label"`              // literal zone label appended after the time; "" disables it
	Location string  `yaml:"location,omitempty"` // IANA name; empty means local time
}

// ZoneLabel returns the label appended to the stamp, empty when disabled.
func (t TimestampConfig) ZoneLabel() string {
	if t.Label == nil {
		return ""
	}
	return *t.Label
}

// BuildConfig holds failure policy and optional run artifacts.
type BuildConfig struct {
	FailurePolicy FailurePolicy `yaml:"failure_policy"`
	ReportDir     string        `yaml:"report_dir,omitempty"`
	MetricsFile   string        `yaml:"metrics_file,omitempty"`
	HistoryDB     string        `yaml:"history_db,omitempty"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads configuration from configPath. A missing file is not an error:
// the built-in defaults reproduce the conventional notebooks/ -> docs/ layout.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Configuration file not found, using defaults", logfields.Path(configPath))
	case err != nil:
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	default:
		if err := decode(data, cfg); err != nil {
			return nil, ferrors.ConfigError("failed to parse config file").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands ${VAR} references and strictly unmarshals YAML into cfg.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	// Defaults for an empty config cannot fail.
	_ = applyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryValidation, "configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return ferrors.InternalError("failed to marshal config").WithCause(err).Build()
	}

	header := []byte("# nbdocs configuration. Paths are relative to the directory nbdocs runs in.\n" +
		"# Converter placeholders: {notebook} {output_dir} {images_dir}\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
