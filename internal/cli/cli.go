// Package cli implements the flowpack command-line interface.
//
// # Commands
//
//   - parse: read flowchart text and print the flat graph as JSON
//   - layout: lay out every component and pack them onto one canvas
//   - algorithms: list the layout algorithms and their tuning
//   - serve: run the HTTP API
//   - cache: inspect or clear the layout cache
//   - config: show the effective configuration
//
// Every command reads the configuration file (see package config) before
// applying its own flags, so flags always win over the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes one line per skipped source line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowpack/pkg/buildinfo"
	"github.com/matzehuels/flowpack/pkg/cache"
	"github.com/matzehuels/flowpack/pkg/config"
	"github.com/matzehuels/flowpack/pkg/layout"
	"github.com/matzehuels/flowpack/pkg/pipeline"
)

// appName is the binary name used in help text.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the configuration file location.
	ConfigPath string

	// Engine, when set, replaces the Graphviz layout engine.
	Engine layout.Engine

	// In and Out carry diagram text and command results. Status lines go
	// to stderr so results can be piped.
	In  io.Reader
	Out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flowpack lays out flowchart text and packs its components",
		Long:         `Flowpack parses flowchart-style diagram text, lays out each connected component independently with Graphviz, and packs the results onto a single canvas.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowpack/config.toml)")

	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.algorithmsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.ConfigPath)
}

// newRunner creates a pipeline runner for CLI use. A cache backend that
// cannot be opened disables caching instead of failing the command.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	var store cache.Cache = cache.NewNullCache()
	if !noCache {
		opened, err := cfg.Cache.Open(ctx)
		if err != nil {
			c.Logger.Warn("cache disabled", "backend", cfg.Cache.Backend, "err", err)
		} else {
			store = opened
		}
	}

	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.TTL = cfg.Cache.TTL
	if c.Engine != nil {
		runner.Engine = c.Engine
	}
	return runner
}

// =============================================================================
// I/O Helpers
// =============================================================================

// readSource reads diagram text from path, or from c.In when path is "-".
func (c *CLI) readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(c.In)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
