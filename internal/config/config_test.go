package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nbdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_MatchesConventionalLayout(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "notebooks", cfg.Source.Root)
	assert.Equal(t, filepath.Join("notebooks", "index.md"), cfg.Source.IndexPath())
	assert.Equal(t, ".ipynb", cfg.Source.Extension)
	assert.Equal(t, "docs", cfg.Output.Directory)
	assert.Equal(t, []AssetConfig{
		{Source: filepath.Join("static", "js"), Target: "js"},
		{Source: filepath.Join("static", "css"), Target: "css"},
		{Source: filepath.Join("notebooks", "img"), Target: "img"},
	}, cfg.Assets)
	assert.Equal(t, []string{
		"jupyter", "nbconvert", "--to", "markdown", "{notebook}",
		"--output-dir", "{output_dir}", "--NbConvertApp.output_files_dir={images_dir}",
	}, cfg.Converter.Command)
	assert.Equal(t, "img", cfg.Converter.ImagesDir)
	assert.Equal(t, []string{"mkdocs", "build"}, cfg.Site.Command)
	assert.Equal(t, "January 02 2006 15:04", cfg.Timestamp.Layout)
	assert.Equal(t, "PST", cfg.Timestamp.ZoneLabel())
	assert.Equal(t, FailurePolicyIgnore, cfg.Build.FailurePolicy)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	require.NoError(t, Validate(cfg))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
source:
  root: book
  extension: .nb
output:
  directory: site-src
assets: []
converter:
  command: ["convert", "{notebook}", "{output_dir}"]
  images_dir: figures
site:
  skip: true
timestamp:
  label: UTC
  location: UTC
build:
  failure_policy: STRICT
  report_dir: reports
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "book", cfg.Source.Root)
	assert.Equal(t, "index.md", cfg.Source.Index)
	assert.Equal(t, ".nb", cfg.Source.Extension)
	assert.Equal(t, "site-src", cfg.Output.Directory)
	assert.Empty(t, cfg.Assets, "explicit empty asset list must not be replaced by defaults")
	assert.Equal(t, []string{"convert", "{notebook}", "{output_dir}"}, cfg.Converter.Command)
	assert.Equal(t, "figures", cfg.Converter.ImagesDir)
	assert.True(t, cfg.Site.Skip)
	assert.Equal(t, "UTC", cfg.Timestamp.ZoneLabel())
	assert.Equal(t, FailurePolicyStrict, cfg.Build.FailurePolicy)
	assert.Equal(t, "reports", cfg.Build.ReportDir)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)

	loc, err := cfg.Timestamp.LoadLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EmptyLabelDisablesSuffix(t *testing.T) {
	path := writeConfig(t, "timestamp:\n  label: \"\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Timestamp.Label)
	assert.Empty(t, cfg.Timestamp.ZoneLabel())

	path = writeConfig(t, "timestamp:\n  layout: \"2006-01-02\"\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimestampLabel, cfg.Timestamp.ZoneLabel())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("NBDOCS_TEST_OUT", "generated")
	cfg, err := Load(writeConfig(t, "output:\n  directory: ${NBDOCS_TEST_OUT}/docs\n"))
	require.NoError(t, err)
	assert.Equal(t, "generated/docs", cfg.Output.Directory)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "ouptut:\n  directory: docs\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_InvalidPolicy(t *testing.T) {
	_, err := Load(writeConfig(t, "build:\n  failure_policy: sometimes\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvFailurePolicy, "strict")

	cfg, err := Load(writeConfig(t, "build:\n  failure_policy: ignore\n"))
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, FailurePolicyStrict, cfg.Build.FailurePolicy)

	t.Setenv(EnvFailurePolicy, "bogus")
	_, err = Load(writeConfig(t, ""))
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbdocs.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = Init(path, false)
	require.Error(t, err, "existing file must not be overwritten without force")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", NormalizeLogLevel("Debug").SlogLevel().String())
	assert.Equal(t, "WARN", NormalizeLogLevel("warning").SlogLevel().String())
	assert.Equal(t, "INFO", NormalizeLogLevel("nonsense").SlogLevel().String())
	assert.Equal(t, LogFormatJSON, logFormatNormalizer.Normalize(" JSON "))
	assert.True(t, failurePolicyNormalizer.Normalize("Strict").IsStrict())
	assert.False(t, failurePolicyNormalizer.Normalize("").IsStrict())
}
