package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/siteconfig/internal/config"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives command output (reports, JSON).
	Out io.Writer
	// Log receives log lines; nil means stderr.
	Log io.Writer
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"siteconfig.yaml" env:"SITECONFIG_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogLevel  string           `name:"log-level" help:"Log level (debug, info, warn, error)" env:"SITECONFIG_LOG_LEVEL"`
	LogFormat string           `name:"log-format" help:"Log format (text, json)" env:"SITECONFIG_LOG_FORMAT"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish   PublishCmd   `cmd:"" help:"Publish module configuration, schemas, templates, taxonomies and the bootstrap list"`
	Resources ResourcesCmd `cmd:"" help:"Publish module resources and their bootstrap list"`
	Resolve   ResolveCmd   `cmd:"" help:"Print the site grouping of a publication"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Daemon    DaemonCmd    `cmd:"" help:"Republish on snapshot changes and on a schedule"`
	History   HistoryCmd   `cmd:"" help:"Show recorded publish runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	c.installLogger(g, config.NormalizeLogLevel(c.LogLevel), config.NormalizeLogFormat(c.LogFormat))
	return nil
}

// installLogger sets the default slog logger; -v forces debug.
func (c *CLI) installLogger(g *Global, level config.LogLevel, format config.LogFormat) {
	slogLevel := level.SlogLevel()
	if c.Verbose {
		slogLevel = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if g != nil && g.Log != nil {
		w = g.Log
	}
	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
		if g.Out == nil {
			g.Out = os.Stdout
		}
	}
}

// loadConfig loads the configuration named by the global flag and applies its
// logging section to whatever the flags and environment left unset.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if c.LogLevel != "" {
		level = config.NormalizeLogLevel(c.LogLevel)
	}
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	c.installLogger(g, level, format)
	return cfg, nil
}
