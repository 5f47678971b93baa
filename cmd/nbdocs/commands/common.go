package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nbdocs/internal/config"
)

// Global carries shared state bound into every command.
type Global struct {
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"nbdocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Rebuild the docs directory from notebooks and run the site builder (default)"`
	Init     InitCmd     `cmd:"" help:"Write a configuration file with the default layout"`
	Discover DiscoverCmd `cmd:"" help:"List notebooks and their target pages without building"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever notebooks or assets change"`
	History  HistoryCmd  `cmd:"" help:"Show recorded builds"`
}

// AfterApply runs after flag parsing; set up logging once. The level is
// refined after the configuration file is loaded.
func (c *CLI) AfterApply() error {
	level := config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel))
	setupLogging(c.Verbose, level, config.LogFormatText)
	return nil
}

// loadConfig loads the configuration file and applies its logging settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(c.Verbose, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func setupLogging(verbose bool, level config.LogLevel, format config.LogFormat) {
	slog.SetDefault(newLogger(os.Stderr, verbose, level, format))
}

func newLogger(w io.Writer, verbose bool, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
