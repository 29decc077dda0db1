package cli

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pipeline"
)

const testConfig = `
[input]
gfa = "from-file.gfa"
samples = "samples.txt"

[walks]
max_detour = 6.5

[simulate]
name = "pop"
count = 4
seed = 9

[store]
backend = "redis"
url = "redis://localhost:6379/0"

[cache]
backend = "none"
`

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, t.TempDir(), "run.toml", testConfig))
	require.NoError(t, err)
	assert.Equal(t, cacheNull, cfg.Cache.Backend)

	empty, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, cacheConfig{}, empty.Cache)

	_, err = loadConfig(writeFile(t, t.TempDir(), "bad.toml", "[cache\n"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestApplyConfig_FlagsWin(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.toml", testConfig)
	c := New(io.Discard, log.InfoLevel)
	var err error
	c.cfg, err = loadConfig(path)
	require.NoError(t, err)

	var opts pipeline.Options
	cmd := &cobra.Command{Use: "test"}
	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	bindSimulateFlags(cmd.Flags(), &opts.Simulate)
	bindWalkFlags(cmd.Flags(), &opts.Walks)
	require.NoError(t, cmd.Flags().Parse([]string{"--count", "2", "--gfa", filepath.Join("x", "cli.gfa")}))

	require.NoError(t, c.applyConfig(cmd.Flags(), &opts))

	assert.Equal(t, 2, opts.Simulate.Count, "explicit flag wins")
	assert.Equal(t, filepath.Join("x", "cli.gfa"), opts.Input.GFA)
	assert.Equal(t, "pop", opts.Simulate.Name, "file value replaces flag default")
	assert.Equal(t, uint64(9), opts.Simulate.Seed)
	assert.Equal(t, 6.5, opts.Walks.MaxDetour)
	assert.Equal(t, "samples.txt", opts.Input.Samples)
	assert.Equal(t, "redis", opts.Store.Backend)
	assert.Equal(t, "redis://localhost:6379/0", opts.Store.URL)
}

func TestApplyConfig_NoFile(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	opts := pipeline.Options{Simulate: pipeline.SimulateOptions{Count: 3}}
	require.NoError(t, c.applyConfig(nil, &opts))
	assert.Equal(t, 3, opts.Simulate.Count)
}
