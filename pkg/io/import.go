package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ReadJSON decodes a JSON graph from r.
//
// Every node id must end in "+" or "-". Edges must reference declared
// nodes. Errors are wrapped with the offending node or edge.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*pangraph.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := pangraph.New()
	for _, n := range data.Nodes {
		nd, err := pangraph.ParseNode(n.ID)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		g.AddNode(nd, n.Rank)
	}
	for _, e := range data.Edges {
		from, err := pangraph.ParseNode(e.From)
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
		to, err := pangraph.ParseNode(e.To)
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
		if err := g.AddEdge(from, to, pangraph.EdgeAttr{Rank: e.Rank, Weight: e.Weight}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// ImportJSON reads the JSON graph stored at path.
func ImportJSON(path string) (*pangraph.Graph, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// Open opens path for reading, decompressing gzip and zstd content on the
// fly. The returned ReadCloser closes both the decoder and the file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &readCloser{Reader: r, close: []func() error{r.Close, f.Close}}, nil
}

// NewReader wraps r in a decompressor chosen by its magic number.
// Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	case bytes.HasPrefix(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gr, nil
	}
	return io.NopCloser(br), nil
}

type readCloser struct {
	io.Reader
	close []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for _, fn := range rc.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
