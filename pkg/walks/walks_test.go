package walks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/builder"
	simpgerrors "github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

func walk(nodes ...string) pangraph.Walk {
	w := make(pangraph.Walk, len(nodes))
	for i, s := range nodes {
		n, err := pangraph.ParseNode(s)
		if err != nil {
			panic(err)
		}
		w[i] = n
	}
	return w
}

// fixture is a reference s1..s4 (CHM13, rank 0) with two HG00438 bubbles:
// s2 -> s5- -> s3 and s3 -> s6 -> s4.
func fixture(t *testing.T) (*pangraph.Graph, *gfa.Table, *bed.Regions) {
	t.Helper()
	segs := gfa.NewTable()
	for _, s := range []gfa.Segment{
		{ID: "s1", Sequence: "A", Sample: "CHM13", Chromosome: "chr1"},
		{ID: "s2", Sequence: "C", Sample: "CHM13", Chromosome: "chr1"},
		{ID: "s3", Sequence: "G", Sample: "CHM13", Chromosome: "chr1"},
		{ID: "s4", Sequence: "T", Sample: "CHM13", Chromosome: "chr1"},
		{ID: "s5", Sequence: "AA", Sample: "HG00438", Chromosome: "chr1", Rank: 1},
		{ID: "s6", Sequence: "CC", Sample: "HG00438", Chromosome: "chr1", Rank: 1},
	} {
		segs.Add(s)
	}
	for _, l := range []gfa.Link{
		{From: "s1", FromStrand: '+', To: "s2", ToStrand: '+'},
		{From: "s2", FromStrand: '+', To: "s3", ToStrand: '+'},
		{From: "s3", FromStrand: '+', To: "s4", ToStrand: '+'},
		{From: "s2", FromStrand: '+', To: "s5", ToStrand: '-', Rank: 1},
		{From: "s5", FromStrand: '-', To: "s3", ToStrand: '+', Rank: 1},
		{From: "s4", FromStrand: '-', To: "s6", ToStrand: '-', Rank: 1},
		{From: "s6", FromStrand: '-', To: "s3", ToStrand: '-', Rank: 1},
	} {
		segs.AddLink(l)
	}
	regions := bed.New([]bed.Region{
		{Chromosome: "chr1", SegmentCount: 2, Segments: []string{"s1", "s2"}},
		{Chromosome: "chr1", SegmentCount: 3, Segments: []string{"s2", "s5", "s3"}},
		{Chromosome: "chr1", SegmentCount: 3, Segments: []string{"s3", "s6", "s4"}},
	})
	g, _, err := builder.Build(segs, regions, builder.Options{})
	require.NoError(t, err)
	return g, segs, regions
}

func TestForSample(t *testing.T) {
	g, segs, regions := fixture(t)

	tests := []struct {
		sample    string
		want      pangraph.Walk
		wantStats Stats
	}{
		{
			sample:    "HG00438",
			want:      walk("s1+", "s2+", "s5-", "s3+", "s6+", "s4+"),
			wantStats: Stats{Samples: 1, Regions: 3, Linear: 1, Exact: 2},
		},
		{
			sample:    "CHM13",
			want:      walk("s1+", "s2+", "s3+", "s4+"),
			wantStats: Stats{Samples: 1, Regions: 3, Exact: 3},
		},
		{
			sample:    "NA12878",
			want:      nil,
			wantStats: Stats{Samples: 1, MissingRank: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			got, st, err := ForSample(context.Background(), g, segs, regions, tt.sample, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStats, st)
		})
	}
}

func TestForSample_SkipsRegionWithoutPath(t *testing.T) {
	segs := gfa.NewTable()
	segs.Add(gfa.Segment{ID: "s1", Sample: "CHM13"})
	segs.Add(gfa.Segment{ID: "s2", Sample: "CHM13"})
	segs.Add(gfa.Segment{ID: "s7", Sample: "HG00438", Rank: 1})

	g := pangraph.New()
	g.AddNode(pangraph.Fwd("s1"), 0)
	g.AddNode(pangraph.Fwd("s7"), 1)
	g.AddNode(pangraph.Fwd("s2"), 0)
	require.NoError(t, g.AddEdge(pangraph.Fwd("s1"), pangraph.Fwd("s7"), pangraph.EdgeAttr{Rank: 1}))

	regions := bed.New([]bed.Region{{Chromosome: "chr1", Segments: []string{"s1", "s7", "s2"}}})

	got, st, err := ForSample(context.Background(), g, segs, regions, "HG00438", Options{})
	require.NoError(t, err)
	assert.Equal(t, walk("s1+"), got)
	assert.Equal(t, 1, st.Failed)
}

func TestForSample_Cancelled(t *testing.T) {
	g, segs, regions := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ForSample(ctx, g, segs, regions, "HG00438", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

type memorySink struct {
	mu      sync.Mutex
	samples []string
	walks   []pangraph.Walk
	failOn  string
}

func (m *memorySink) Append(_ context.Context, sample string, w pangraph.Walk) error {
	if sample == m.failOn {
		return errors.New("disk full")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sample)
	m.walks = append(m.walks, w)
	return nil
}

func TestExtract_PreservesSampleOrder(t *testing.T) {
	g, segs, regions := fixture(t)
	samples := []string{"HG00438", "CHM13", "NA12878", "CHM13", "HG00438", "HG00438", "CHM13"}

	sink := &memorySink{}
	st, err := Extract(context.Background(), g, segs, regions, samples, sink, Options{Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, samples, sink.samples)
	assert.Nil(t, sink.walks[2])
	assert.Equal(t, walk("s1+", "s2+", "s3+", "s4+"), sink.walks[3])
	assert.Equal(t, walk("s1+", "s2+", "s5-", "s3+", "s6+", "s4+"), sink.walks[5])
	assert.Equal(t, 7, st.Samples)
	assert.Equal(t, 1, st.MissingRank)
	assert.Equal(t, 3*2+3*3, st.Exact)
}

func TestExtract_SinkError(t *testing.T) {
	g, segs, regions := fixture(t)
	sink := &memorySink{failOn: "CHM13"}
	_, err := Extract(context.Background(), g, segs, regions, []string{"HG00438", "CHM13", "HG00438"}, sink, Options{Workers: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{"HG00438"}, sink.samples)
}

func TestExtract_NoSamples(t *testing.T) {
	g, segs, regions := fixture(t)
	st, err := Extract(context.Background(), g, segs, regions, nil, &memorySink{}, Options{})
	require.NoError(t, err)
	assert.Zero(t, st)
}

func TestReadSamples(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "samples.txt")
	require.NoError(t, os.WriteFile(good, []byte("HG00438\n\n  NA12878  \nHG00621\n"), 0o644))

	got, err := ReadSamples(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00438", "NA12878", "HG00621"}, got)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("HG00438\nNA 12878\n"), 0o644))
	_, err = ReadSamples(bad)
	assert.True(t, simpgerrors.Is(err, simpgerrors.ErrCodeInvalidInput))

	_, err = ReadSamples(filepath.Join(dir, "missing.txt"))
	assert.True(t, simpgerrors.Is(err, simpgerrors.ErrCodeFileNotFound))
}

func TestExpandPloidy(t *testing.T) {
	got, err := ExpandPloidy([]string{"HG00438", "NA12878"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00438.1", "HG00438.2", "NA12878.1", "NA12878.2"}, got)

	_, err = ExpandPloidy([]string{"HG00438"}, 0)
	assert.True(t, simpgerrors.Is(err, simpgerrors.ErrCodeInvalidInput))
}
