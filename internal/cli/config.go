package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pipeline"
)

// fileConfig is the part of a run configuration the CLI keeps for itself.
// The stage tables ([input], [walks], [simulate], [store]) decode straight
// into pipeline.Options in applyConfig.
//
//	[input]
//	gfa = "hprc.gfa.zst"
//	bed = "bubbles.bed"
//	samples = "samples.txt"
//
//	[simulate]
//	name = "pop"
//	count = 10
//
//	[cache]
//	backend = "redis"
//	url = "redis://localhost:6379/0"
type fileConfig struct {
	path string

	Cache cacheConfig `toml:"cache"`
}

type cacheConfig struct {
	Backend string `toml:"backend"` // file (default), none or redis
	Dir     string `toml:"dir"`     // file backend directory
	URL     string `toml:"url"`     // redis URL
}

// loadConfig reads the [cache] table of path. An empty path yields the
// zero configuration.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{path: path}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// applyConfig decodes the stage tables of the configuration file into opts.
// Flags explicitly set on the command line are then written again, so they
// take precedence over the file; unset flags keep the file's values.
func (c *CLI) applyConfig(flags *pflag.FlagSet, opts *pipeline.Options) error {
	if c.cfg == nil || c.cfg.path == "" {
		return nil
	}
	md, err := toml.DecodeFile(c.cfg.path, opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", c.cfg.path)
	}
	for _, key := range md.Undecoded() {
		if k := key.String(); !strings.HasPrefix(k, "cache") {
			c.Logger.Warn("unknown configuration key", "key", k, "file", c.cfg.path)
		}
	}

	var setErr error
	flags.Visit(func(f *pflag.Flag) {
		if setErr != nil {
			return
		}
		if err := f.Value.Set(f.Value.String()); err != nil {
			setErr = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	return setErr
}
