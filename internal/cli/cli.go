// Package cli implements the kagome command-line interface.
//
// # Commands
//
//   - generate: write builder meshes (grids, tori, rosettes) as mesh JSON
//   - convert: build a kagome mesh from a coarse triangle mesh
//   - analyze: trace polyedges and write strand graph artifacts
//   - browse: explore the polyedges of a mesh interactively
//   - list: show analyses saved with analyze --save
//   - serve: run the HTTP API
//   - cache: manage the local cache
//
// # Configuration
//
// Defaults come from the TOML file given by --config, or from
// $XDG_CONFIG_HOME/kagome/config.toml when it exists. Flags override it.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/pkg/buildinfo"
	"github.com/matzehuels/kagome/pkg/cache"
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/httputil"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "kagome"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     pipeline.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: pipeline.DefaultConfig(),
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
		Short:        "Kagome traces and weaves polyedges on quad-dominant meshes",
		Long:         `Kagome partitions the edges of a 4-valent mesh into polyedges, classifies singular faces, and computes frames, weave offsets and the strand graph used to fabricate woven structures.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/kagome/config.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.config.Cache
	if noCache {
		cfg.Backend = pipeline.BackendNone
	}
	ch, keyer, err := pipeline.OpenCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// loadMesh reads a mesh from a file or, for http(s) arguments, from the
// network through the local cache.
func (c *CLI) loadMesh(ctx context.Context, arg string, noCache bool) (*mesh.Mesh, error) {
	if !httputil.IsURL(arg) {
		return mesh.ReadFile(arg)
	}
	var ch cache.Cache
	if !noCache {
		var err error
		if ch, _, err = pipeline.OpenCache(ctx, c.config.Cache); err != nil {
			return nil, err
		}
		defer ch.Close()
	}
	loggerFromContext(ctx).Debug("fetching mesh", "url", arg)
	return httputil.NewFetcher(ch, httputil.DefaultTTL).Mesh(ctx, arg)
}

// cacheDir returns the configured file cache directory.
func (c *CLI) cacheDir() string {
	if c.config.Cache.Dir != "" {
		return c.config.Cache.Dir
	}
	return pipeline.DefaultCacheDir()
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string leaves the choice to the configuration.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input (or uses the last
// URL segment). Known format extensions are stripped from output.
func basePath(output, input string) string {
	if output == "" {
		if httputil.IsURL(input) {
			input = filepath.Base(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
