package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/simpg/pkg/cache"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/store"
)

// The reference is s1..s4 with two HG00438 bubbles, s2 -> s5- -> s3 and
// s3 -> s6 -> s4.
const gfaText = "H\tVN:Z:1.0\n" +
	"S\ts1\tAC\tLN:i:2\tSN:Z:CHM13#0#chr1\tSO:i:0\tSR:i:0\n" +
	"S\ts2\tGT\tLN:i:2\tSN:Z:CHM13#0#chr1\tSO:i:2\tSR:i:0\n" +
	"S\ts3\tCA\tLN:i:2\tSN:Z:CHM13#0#chr1\tSO:i:4\tSR:i:0\n" +
	"S\ts4\tTG\tLN:i:2\tSN:Z:CHM13#0#chr1\tSO:i:6\tSR:i:0\n" +
	"S\ts5\tAAA\tLN:i:3\tSN:Z:HG00438#1#h1tg1\tSO:i:0\tSR:i:1\n" +
	"S\ts6\tCCC\tLN:i:3\tSN:Z:HG00438#1#h1tg1\tSO:i:3\tSR:i:1\n" +
	"L\ts1\t+\ts2\t+\t0M\tSR:i:0\n" +
	"L\ts2\t+\ts3\t+\t0M\tSR:i:0\n" +
	"L\ts3\t+\ts4\t+\t0M\tSR:i:0\n" +
	"L\ts2\t+\ts5\t-\t0M\tSR:i:1\n" +
	"L\ts5\t-\ts3\t+\t0M\tSR:i:1\n" +
	"L\ts4\t-\ts6\t-\t0M\tSR:i:1\n" +
	"L\ts6\t-\ts3\t-\t0M\tSR:i:1\n"

func bedLine(segs string, n int) string {
	return strings.Join([]string{"CHM13#0#chr1", "0", "8", string(rune('0' + n)), "2", "0", ".", ".", ".", ".", ".", segs}, "\t") + "\n"
}

func writeInputs(t *testing.T) (dir string, opts Options) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	opts.Input = InputOptions{
		GFA:     write("graph.gfa", gfaText),
		BED:     write("bubbles.bed", bedLine("s1,s2", 2)+bedLine("s2,s5,s3", 3)+bedLine("s3,s6,s4", 3)),
		Samples: write("samples.txt", "HG00438\n\nCHM13\n"),
	}
	opts.Simulate = SimulateOptions{Name: "pop", OutDir: filepath.Join(dir, "out"), Seed: 11}
	return dir, opts
}

func TestExecute(t *testing.T) {
	dir, opts := writeInputs(t)
	opts.Simulate.Count = 2
	opts.Simulate.Fraction = 1

	fc, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Samples)
	assert.NotNil(t, res.Report)
	assert.Equal(t, 2, res.WalkStats.Samples)
	assert.Zero(t, res.WalkStats.Failed)
	assert.Equal(t, []pangraph.Node{
		pangraph.Fwd("s1"), pangraph.Fwd("s2"), pangraph.Fwd("s3"), pangraph.Fwd("s4"),
	}, res.Core)
	assert.True(t, res.Population.HasEdge(pangraph.Fwd("s2"), pangraph.Rev("s5")))
	assert.True(t, res.Population.HasEdge(pangraph.Fwd("s3"), pangraph.Fwd("s4")))

	require.Len(t, res.Simulations, 2)
	assert.Equal(t, uint64(11), res.Simulations[0].Seed)
	assert.Equal(t, uint64(12), res.Simulations[1].Seed)
	for _, sim := range res.Simulations {
		assert.FileExists(t, sim.FASTA)
		assert.FileExists(t, sim.RVCF)
		assert.Equal(t, 1, sim.Chromosomes)
	}
	assert.FileExists(t, filepath.Join(dir, "out", "pop_walks.bin"))

	require.Len(t, res.Subsampled, 2)
	for i, sim := range res.Simulations {
		assert.Equal(t, sim.Variants, res.Subsampled[i], "fraction 1 keeps every record")
	}
	assert.DirExists(t, opts.SubsampleDir())
	assert.False(t, res.CacheInfo.BuildHit)
	assert.False(t, res.CacheInfo.WalksReused)
	assert.False(t, res.CacheInfo.CoreHit)

	again, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, again.CacheInfo.BuildHit)
	assert.Nil(t, again.Report)
	assert.True(t, again.CacheInfo.WalksReused)
	assert.True(t, again.CacheInfo.CoreHit)
	assert.Equal(t, res.Core, again.Core)
	assert.Equal(t, res.Graph.EdgeCount(), again.Graph.EdgeCount())

	opts.Refresh = true
	fresh, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, fresh.CacheInfo.BuildHit)
	assert.False(t, fresh.CacheInfo.WalksReused)
}

func TestExecute_SameSeedSameOutput(t *testing.T) {
	_, opts := writeInputs(t)
	r := NewRunner(nil, nil, nil)

	first, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	a, err := os.ReadFile(first.Simulations[0].RVCF)
	require.NoError(t, err)

	opts.Refresh = true
	second, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	b, err := os.ReadFile(second.Simulations[0].RVCF)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestExecute_RandomWeightsSaved(t *testing.T) {
	dir, opts := writeInputs(t)
	opts.Simulate.RandomWeights = true
	opts.Simulate.Weights = filepath.Join(dir, "weights.json")

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.FileExists(t, opts.Simulate.Weights)

	opts.Simulate.RandomWeights = false
	opts.Refresh = true
	_, err = NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	require.NoError(t, err)
}

func TestExecute_MissingInput(t *testing.T) {
	_, opts := writeInputs(t)
	opts.Input.GFA = filepath.Join(t.TempDir(), "missing.gfa")

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
	assert.Contains(t, err.Error(), StageBuild)
}

func TestExecute_Cancelled(t *testing.T) {
	_, opts := writeInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Execute(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_BuildSimple(t *testing.T) {
	_, opts := writeInputs(t)
	opts.Input.Simple = true
	in, err := LoadInputs(opts.Input)
	require.NoError(t, err)
	assert.Nil(t, in.Regions)

	g, rep, hit, err := NewRunner(nil, nil, nil).Build(context.Background(), in, opts)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 12, g.NodeCount())
	assert.Equal(t, 7, rep.Links)
}

func TestLoadSamples_Ploidy(t *testing.T) {
	_, opts := writeInputs(t)
	opts.Input.Ploidy = 2
	got, err := LoadSamples(opts.Input)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00438.1", "HG00438.2", "CHM13.1", "CHM13.2"}, got)
}

func TestOptions_Validate(t *testing.T) {
	base := func() Options {
		return Options{Input: InputOptions{GFA: "g.gfa", BED: "r.bed", Samples: "s.txt"}}
	}
	tests := []struct {
		name   string
		modify func(*Options)
		code   errors.Code
	}{
		{"valid", func(*Options) {}, ""},
		{"no gfa", func(o *Options) { o.Input.GFA = "" }, errors.ErrCodeInvalidConfig},
		{"no bed", func(o *Options) { o.Input.BED = "" }, errors.ErrCodeInvalidConfig},
		{"simple", func(o *Options) { o.Input.Simple = true }, errors.ErrCodeInvalidConfig},
		{"no samples", func(o *Options) { o.Input.Samples = "" }, errors.ErrCodeInvalidConfig},
		{"negative ploidy", func(o *Options) { o.Input.Ploidy = -1 }, errors.ErrCodeInvalidConfig},
		{"bad name", func(o *Options) { o.Simulate.Name = "a/b" }, errors.ErrCodeInvalidPath},
		{"bad fraction", func(o *Options) { o.Simulate.Fraction = 2 }, errors.ErrCodeInvalidInput},
		{"bad backend", func(o *Options) { o.Store.Backend = "s3" }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.modify(&o)
			o.SetDefaults()
			err := o.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestOptions_SetDefaults(t *testing.T) {
	o := Options{}
	o.SetDefaults()
	assert.Equal(t, DefaultName, o.Simulate.Name)
	assert.Equal(t, DefaultCount, o.Simulate.Count)
	assert.Equal(t, store.BackendFile, o.Store.Backend)
	assert.Equal(t, filepath.Join(".", DefaultName+"_walks.bin"), o.Store.Path)
	assert.Equal(t, filepath.Join(".", DefaultName+"_partial"), o.SubsampleDir())
	assert.NotNil(t, o.Logger)
}
