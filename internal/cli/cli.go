package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/buildinfo"
	"github.com/matzehuels/simpg/pkg/cache"
	"github.com/matzehuels/simpg/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "simpg"

	// redisKeyPrefix scopes cache keys on a shared Redis server.
	redisKeyPrefix = appName + ":cache:"
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

	// configPath is the --config flag; cfg is loaded from it before any
	// command runs.
	configPath string
	cfg        *fileConfig
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: &fileConfig{}}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "simpg simulates genomes from pangenome graphs",
		Long: `simpg builds a variation graph from an rGFA file and its bubble regions,
derives a walk per sample, merges the walks into a population graph and
samples new genomes from it by random walks between core segments.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML run configuration (flags given on the command line win)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.walksCommand())
	root.AddCommand(c.coreCommand())
	root.AddCommand(c.populationCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.subsampleCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.samplesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerFileCompletions(root)

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.cfg.Cache
	if noCache {
		cfg.Backend = cacheNull
	}
	ch, keyer, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// Cache backends selectable in the [cache] table.
const (
	cacheFile  = "file"
	cacheNull  = "none"
	cacheRedis = "redis"
)

func newCache(ctx context.Context, cfg cacheConfig) (cache.Cache, cache.Keyer, error) {
	switch cfg.Backend {
	case "", cacheFile:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return cache.NewNullCache(), nil, nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, nil, nil
	case cacheNull:
		return cache.NewNullCache(), nil, nil
	case cacheRedis:
		rc, err := cache.DialRedis(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q (must be file, none or redis)", cfg.Backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/simpg/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
