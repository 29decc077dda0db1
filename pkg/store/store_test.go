package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

var (
	hgWalk  = pangraph.Walk{pangraph.Fwd("s1"), pangraph.Rev("s5"), pangraph.Fwd("s2")}
	chmWalk = pangraph.Walk{pangraph.Fwd("s1"), pangraph.Fwd("s2")}
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "walks.bin")
	s := NewFileStore(path)

	require.NoError(t, s.Append(ctx, "HG00438", hgWalk))
	require.NoError(t, s.Append(ctx, "NA12878", nil))
	require.NoError(t, s.Append(ctx, "CHM13", chmWalk))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "walk file must not exist before Close")
	assert.True(t, errors.Is(s.Iterate(ctx, func(string, pangraph.Walk) error { return nil }), errors.ErrCodeStorage))

	require.NoError(t, s.Close())

	samples, walks, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00438", "NA12878", "CHM13"}, samples)
	assert.Equal(t, hgWalk, walks[0])
	assert.Nil(t, walks[1])
	assert.Equal(t, chmWalk, walks[2])
}

func TestFileStore_EmptyWalkIsNotMissing(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "walks.bin"))
	require.NoError(t, s.Append(ctx, "HG00438", pangraph.Walk{}))
	require.NoError(t, s.Close())

	_, walks, err := Collect(ctx, s)
	require.NoError(t, err)
	require.Len(t, walks, 1)
	assert.NotNil(t, walks[0])
	assert.Empty(t, walks[0])
}

func TestFileStore_Abort(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "walks.bin"))
	require.NoError(t, s.Append(context.Background(), "HG00438", hgWalk))
	s.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, s.Close())
}

func TestReadWalks_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	err := ReadWalks(ctx, filepath.Join(dir, "missing.bin"), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	garbage := filepath.Join(dir, "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, []byte("not a gob stream"), 0o644))
	err = ReadWalks(ctx, garbage, func(string, pangraph.Walk) error { return nil })
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestReadWalks_StopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "walks.bin"))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(ctx, name, chmWalk))
	}
	require.NoError(t, s.Close())

	stop := errors.New(errors.ErrCodeInternal, "stop")
	var seen []string
	err := s.Iterate(ctx, func(sample string, _ pangraph.Walk) error {
		seen = append(seen, sample)
		if sample == "b" {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestRecordEncoding(t *testing.T) {
	for _, walk := range []pangraph.Walk{hgWalk, nil, {}} {
		data, err := encodeRecord(newRecord("HG00438", walk))
		require.NoError(t, err)
		rec, err := decodeRecord(data)
		require.NoError(t, err)
		assert.Equal(t, "HG00438", rec.Sample)
		assert.Equal(t, walk, rec.walk())
	}
}

func TestWalkDocument(t *testing.T) {
	doc := toDocument("run", 3, "HG00438", hgWalk)
	assert.Equal(t, []string{"s1+", "s5-", "s2+"}, doc.Nodes)
	w, err := doc.walk()
	require.NoError(t, err)
	assert.Equal(t, hgWalk, w)

	missing := toDocument("run", 4, "NA12878", nil)
	assert.True(t, missing.Missing)
	w, err = missing.walk()
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = walkDocument{Nodes: []string{"s1"}}.walk()
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &Config{Path: filepath.Join(t.TempDir(), "walks.bin")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	tests := []struct {
		name string
		cfg  Config
		code errors.Code
	}{
		{"file without path", Config{Backend: BackendFile}, errors.ErrCodeInvalidConfig},
		{"redis without url", Config{Backend: BackendRedis}, errors.ErrCodeInvalidConfig},
		{"bad run id", Config{Backend: BackendMongo, URL: "mongodb://localhost", RunID: "run-1"}, errors.ErrCodeInvalidInput},
		{"unknown backend", Config{Backend: "s3"}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, &tt.cfg)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	assert.NoError(t, ValidateRunID(id))
	assert.NotEqual(t, id, NewRunID())
}

func TestGraphArtifact(t *testing.T) {
	g := pangraph.New()
	g.AddNode(pangraph.Fwd("s1"), 0)
	g.AddNode(pangraph.Rev("s5"), 1)
	require.NoError(t, g.AddEdge(pangraph.Fwd("s1"), pangraph.Rev("s5"), pangraph.EdgeAttr{Rank: 1, Weight: 0.5}))

	path := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, SaveGraph(path, g))
	got, err := LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), got.Nodes())
	assert.Equal(t, g.Edges(), got.Edges())

	_, err = LoadGraph(filepath.Join(t.TempDir(), "none.bin"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestCoreArtifact(t *testing.T) {
	core := []pangraph.Node{pangraph.Fwd("s1"), pangraph.Fwd("s4"), pangraph.Fwd("s9")}
	path := filepath.Join(t.TempDir(), "core.bin")
	require.NoError(t, SaveCore(path, core))
	got, err := LoadCore(path)
	require.NoError(t, err)
	assert.Equal(t, core, got)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "walks.bin"))
	require.NoError(t, s.Append(ctx, "HG00438", hgWalk))

	require.NoError(t, Flush(s))
	samples, _, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"HG00438"}, samples)

	// Flushing with nothing pending is a no-op.
	assert.NoError(t, Flush(s))
}
