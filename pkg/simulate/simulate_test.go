package simulate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/randwalk"
)

func nodes(ss ...string) pangraph.Walk {
	w := make(pangraph.Walk, len(ss))
	for i, s := range ss {
		n, err := pangraph.ParseNode(s)
		if err != nil {
			panic(err)
		}
		w[i] = n
	}
	return w
}

func segments() *gfa.Table {
	t := gfa.NewTable()
	for _, s := range []gfa.Segment{
		{ID: "s1", Sequence: "AC", Sample: "CHM13"},
		{ID: "s2", Sequence: "GT", Sample: "CHM13"},
		{ID: "s3", Sequence: "AA", Sample: "CHM13"},
		{ID: "s4", Sequence: "CC", Sample: "CHM13"},
		{ID: "s5", Sequence: "TTG", Sample: "HG00438", Rank: 1},
		{ID: "s10", Sequence: "GG", Sample: "CHM13"},
		{ID: "s11", Sequence: "TT", Sample: "CHM13"},
		{ID: "s12", Sequence: "A", Sample: "HG00438", Rank: 1},
		{ID: "s20", Sequence: "N", Sample: "CHM13"},
		{ID: "s21", Sequence: "N", Sample: "CHM13"},
	} {
		t.Add(s)
	}
	return t
}

// populationGraph has one path per chromosome, so walks are deterministic:
// chr1 takes the s5- alternative, chr2 follows the reference and chr3 has no
// core segment.
func populationGraph() *pangraph.Graph {
	g := pangraph.New()
	for _, w := range []pangraph.Walk{
		nodes("s1+", "s2+", "s5-", "s4+"),
		nodes("s10+", "s11+"),
		nodes("s20+", "s21+"),
	} {
		for i, n := range w {
			g.AddNode(n, 0)
			if i > 0 {
				_ = g.AddEdge(w[i-1], n, pangraph.EdgeAttr{})
			}
		}
	}
	return g
}

var core = nodes("s1+", "s2+", "s4+", "s10+", "s11+")

func TestSimulate(t *testing.T) {
	var fa, rvcf bytes.Buffer
	res, err := Simulate(context.Background(), populationGraph(), segments(), core, randwalk.NewRand(1), &fa, &rvcf, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Chromosomes)
	assert.Equal(t, 1, res.Variants)
	assert.Contains(t, fa.String(), ">chr1")
	assert.Contains(t, fa.String(), "ACGTCAACC")
	assert.Contains(t, fa.String(), ">chr2")
	assert.Contains(t, fa.String(), "GGTT")
	assert.NotContains(t, fa.String(), "chr3")
	assert.Equal(t, "(s2,s4)\t(s2+,s3+,s4+)\t(s2+,s5-,s4+)\n", rvcf.String())
}

func TestSimulate_WeightedWalks(t *testing.T) {
	g := populationGraph()
	opts := Options{Weights: randwalk.RandomEdgeWeights(g, randwalk.NewRand(2))}
	var fa, rvcf bytes.Buffer
	res, err := Simulate(context.Background(), g, segments(), core, randwalk.NewRand(1), &fa, &rvcf, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Variants)
}

func TestSimulate_NoPathBetweenCores(t *testing.T) {
	g := populationGraph()
	g.RemoveEdge(pangraph.Fwd("s2"), pangraph.Rev("s5"))
	g.AddNode(pangraph.Fwd("s3"), 0)
	_ = g.AddEdge(pangraph.Fwd("s4"), pangraph.Fwd("s3"), pangraph.EdgeAttr{})
	_ = g.AddEdge(pangraph.Fwd("s3"), pangraph.Fwd("s2"), pangraph.EdgeAttr{})

	var fa, rvcf bytes.Buffer
	_, err := Simulate(context.Background(), g, segments(), core, randwalk.NewRand(1), &fa, &rvcf, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeNoPath), "got %v", err)
}

func TestPopulation_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	results, err := Population(context.Background(), populationGraph(), segments(), core, Options{
		Name: "eas", OutDir: dir, Count: 2, Seed: 7,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, uint64(7), results[0].Seed)
	assert.Equal(t, uint64(8), results[1].Seed)
	assert.Equal(t, filepath.Join(dir, "eas_simulate_fasta", "eas_simulate002.fa"), results[1].FASTA)
	for _, r := range results {
		data, err := os.ReadFile(r.FASTA)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), ">chr1"))
		_, err = os.Stat(r.RVCF)
		assert.NoError(t, err)
	}
}

func TestPopulation_InvalidName(t *testing.T) {
	_, err := Population(context.Background(), populationGraph(), segments(), core, Options{Name: "../x", OutDir: t.TempDir()})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))
}

func TestPaths(t *testing.T) {
	fa, rvcf := Paths("out", "my", 3)
	assert.Equal(t, filepath.Join("out", "my_simulate_fasta", "my_simulate003.fa"), fa)
	assert.Equal(t, filepath.Join("out", "my_simulate_rvcf", "my_simulate003.rvcf"), rvcf)
}

func TestChromosomeName(t *testing.T) {
	tests := []struct {
		idx   int
		human bool
		want  string
	}{
		{1, false, "chr1"},
		{23, false, "chr23"},
		{23, true, "chrX"},
		{24, true, "chrY"},
		{25, true, "chr25"},
	}
	for _, tt := range tests {
		if got := chromosomeName(tt.idx, tt.human); got != tt.want {
			t.Errorf("chromosomeName(%d, %v) = %q, want %q", tt.idx, tt.human, got, tt.want)
		}
	}
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "acgtNACGT", string(reverseComplement("ACGTNacgt")))
	assert.Empty(t, reverseComplement(""))
}

func TestVariantsOf(t *testing.T) {
	fwd := func(n pangraph.Node) bool { return n.Strand == pangraph.Forward }

	vars, inv, err := variantsOf(nodes("s2+", "s9-", "s7+", "s3+", "s4+"), fwd)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, Variant{Start: "s2", End: "s7", Alt: nodes("s2+", "s9-", "s7+")}, vars[0])
	require.Len(t, inv, 1)
	assert.Equal(t, 7, inv[0].start)
	assert.Equal(t, 3, inv[0].end)
}

func TestSplitAtReference(t *testing.T) {
	fwd := func(n pangraph.Node) bool { return n.Strand == pangraph.Forward }
	got := splitAtReference(nodes("s1+", "s5-", "s3+", "s6-"), fwd)
	assert.Equal(t, []pangraph.Walk{nodes("s1+"), nodes("s1+", "s5-", "s3+"), nodes("s3+", "s6-")}, got)
}

func TestVariant_RoundTrip(t *testing.T) {
	v := Variant{Start: "s2", End: "s4", Alt: nodes("s2+", "s5-", "s4+")}
	line := v.String()
	assert.Equal(t, "(s2,s4)\t(s2+,s3+,s4+)\t(s2+,s5-,s4+)", line)

	got, err := ParseVariant(line + "\n")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	for _, bad := range []string{"(s2,s4)\t(s2+)", "s2s4\t()\t(s2+)", "(s2,s4)\t()\t(s2)"} {
		_, err := ParseVariant(bad)
		assert.Error(t, err, bad)
	}
}

func twoChromosomes() *bed.Regions {
	return bed.New([]bed.Region{
		{Chromosome: "chr1", Segments: []string{"s1", "s2"}},
		{Chromosome: "chr1", Segments: []string{"s2", "s5", "s4"}},
		{Chromosome: "chr2", Segments: []string{"s10", "s12", "s11"}},
	})
}

const records = "(s2,s4)\t(s2+,s3+,s4+)\t(s2+,s5-,s4+)\n" +
	"(s10,s11)\t(s10+,s11+)\t(s10+,s12+,s11+)\n"

func TestSubsample(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		wantKept int
		wantFA   []string
	}{
		{"all", 1, 2, []string{">chr1", "ACGTCAACC", ">chr2", "GGATT"}},
		{"none", 0, 0, []string{">chr1", "ACGTAACC", ">chr2", "GGTT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fa, rvcf bytes.Buffer
			kept, err := Subsample(strings.NewReader(records), twoChromosomes(), segments(), randwalk.NewRand(1), &fa, &rvcf, SubsampleOptions{Fraction: tt.fraction})
			require.NoError(t, err)
			assert.Equal(t, tt.wantKept, kept)
			for _, want := range tt.wantFA {
				assert.Contains(t, fa.String(), want)
			}
			assert.Equal(t, tt.wantKept, strings.Count(rvcf.String(), "\n"))
		})
	}
}

func TestSubsample_Half(t *testing.T) {
	var fa, rvcf bytes.Buffer
	kept, err := Subsample(strings.NewReader(records), twoChromosomes(), segments(), randwalk.NewRand(3), &fa, &rvcf, SubsampleOptions{Fraction: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1, kept)
	assert.Contains(t, records, rvcf.String())
}

func TestSubsample_SkipsRecordOffReference(t *testing.T) {
	in := "(s3,s4)\t(s3+,s4+)\t(s3-,s4+)\n"
	var fa, rvcf bytes.Buffer
	_, err := Subsample(strings.NewReader(in), twoChromosomes(), segments(), randwalk.NewRand(1), &fa, &rvcf, SubsampleOptions{Fraction: 1})
	require.NoError(t, err)
	assert.Contains(t, fa.String(), "ACGTAACC")
}

func TestSubsample_Errors(t *testing.T) {
	var fa, rvcf bytes.Buffer
	_, err := Subsample(strings.NewReader(records), twoChromosomes(), segments(), randwalk.NewRand(1), &fa, &rvcf, SubsampleOptions{Fraction: 1.5})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = Subsample(strings.NewReader("garbage\n"), twoChromosomes(), segments(), randwalk.NewRand(1), &fa, &rvcf, SubsampleOptions{Fraction: 1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))

	// The first record moves on to chr2 and is skipped there; the second
	// runs past the last chromosome.
	beyond := strings.Repeat("(s30,s31)\t(s30+,s31+)\t(s30+,s32-,s31+)\n", 2)
	_, err = Subsample(strings.NewReader(beyond), twoChromosomes(), segments(), randwalk.NewRand(1), &fa, &rvcf, SubsampleOptions{Fraction: 1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestKeepFraction(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	got := keepFraction(lines, 0.5, randwalk.NewRand(4))
	require.Len(t, got, 2)
	assert.Less(t, strings.Index("abcd", got[0]), strings.Index("abcd", got[1]), "order must be preserved")

	// 2.5 rounds half to even.
	assert.Len(t, keepFraction([]string{"a", "b", "c", "d", "e"}, 0.5, randwalk.NewRand(4)), 2)
}

func TestSubsampleFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "my_simulate001.rvcf"), []byte(records), 0o644))

	kept, err := SubsampleFiles(context.Background(), in, out, "my", 1, 1, twoChromosomes(), segments(), SubsampleOptions{Fraction: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, kept)

	fa, rvcf := Paths(out, "my", 1)
	data, err := os.ReadFile(rvcf)
	require.NoError(t, err)
	assert.Equal(t, records, string(data))
	_, err = os.Stat(fa)
	assert.NoError(t, err)

	_, err = SubsampleFiles(context.Background(), in, out, "my", 2, 1, twoChromosomes(), segments(), SubsampleOptions{Fraction: 1})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}
