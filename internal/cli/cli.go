// Package cli implements the stitchgraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/buildinfo"
	"github.com/matzehuels/stitchgraph/pkg/cache"
	"github.com/matzehuels/stitchgraph/pkg/config"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stitchgraph"

	// annotationNoConfig marks commands that run before a config file
	// exists.
	annotationNoConfig = "no-config"
)

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

	// Config is loaded before any subcommand runs.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
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
		Short:        "Stitchgraph lays out and renders knitting patterns",
		Long:         `Stitchgraph reads knitting patterns as graphs of rows, instructions and meshes, computes their knit order and chart layout, and renders them as charts, knitting machine images or Graphviz diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] != "" {
				return nil
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.walkCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc := c.Config.Cache
	if noCache {
		cc.Backend = config.BackendNone
	}
	store, err := newCache(ctx, cc)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cc.Namespace != "" {
		keyer = cache.NewScopedKeyer(nil, cc.Namespace)
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	r.TTL = cc.TTL
	return r, nil
}

func newCache(ctx context.Context, cc config.CacheConfig) (cache.Cache, error) {
	var (
		c   cache.Cache
		err error
	)
	switch cc.Backend {
	case config.BackendFile:
		c, err = cache.NewFileCache(cc.Dir)
	case config.BackendBadger:
		c, err = cache.NewBadgerCache(cc.Dir)
	case config.BackendRedis:
		c, err = cache.NewRedisCache(ctx, cc.RedisAddr)
	default:
		return cache.NewNullCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cc.Backend, err)
	}
	return c, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderDefaults returns pipeline options seeded from the config file.
func (c *CLI) renderDefaults() pipeline.Options {
	return pipeline.Options{
		Format:      c.Config.Render.Format,
		Style:       c.Config.Render.Style,
		Zoom:        c.Config.Render.Zoom,
		Connections: c.Config.Render.Connections,
		Logger:      c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
