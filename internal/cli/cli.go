// Package cli implements the flowgraph command-line interface.
//
// # Commands
//
//   - render: convert an edge list (TSV) to DOT, SVG or PNG
//   - sql-logs: build a graph from SQL query logs stored in Elasticsearch
//   - pcap: build a graph from a packet capture
//   - cache: manage the hostname cache
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs and
// status lines go to stderr; artifacts written without --output go to stdout.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/buildinfo"
	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
	"github.com/matzehuels/flowgraph/pkg/source/pcap"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and default file names.
	appName = "flowgraph"

	// hostCachePrefix scopes hostname entries in a shared cache backend.
	hostCachePrefix = "flowgraph:hosts:"
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

	// Stdout receives artifacts written without --output.
	Stdout io.Writer

	configPath string
	verbose    bool
	config     *config.Config
	hooks      *logHooks

	// lookup replaces reverse DNS in the pcap command when set.
	lookup pcap.LookupFunc
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "flowgraph visualizes how data flows between services",
		Long: `flowgraph aggregates logs and packet captures into weighted data-flow graphs
and renders them as TSV edge lists, Graphviz DOT, SVG or PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			c.hooks = registerHooks(c.Logger)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $FLOWGRAPH_CONFIG or ./"+config.FileName+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sqlLogsCommand())
	root.AddCommand(c.pcapCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "cache", cfg.Cache.Backend, "es", cfg.Elasticsearch.URL)
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Runner & Cache Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// newHostCache opens the configured hostname cache backend, scoped to
// hostname entries.
func (c *CLI) newHostCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	var backend cache.Cache
	var err error
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		backend, err = cache.NewMemoryCache(cfg.Size)
	case config.CacheFile:
		backend, err = cache.NewFileCache(cfg.Dir)
	case config.CacheRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		c.Logger.Warn("hostname cache unavailable, continuing without it", "backend", cfg.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	c.Logger.Debug("opened hostname cache", "backend", cfg.Backend)
	return cache.Scoped(backend, hostCachePrefix), nil
}
