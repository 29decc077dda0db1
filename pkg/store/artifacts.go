package store

import (
	"encoding/gob"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// SaveGraph writes g to path as a zstd-compressed gob.
func SaveGraph(path string, g *pangraph.Graph) error {
	return save(path, g)
}

// LoadGraph reads a graph written by SaveGraph.
func LoadGraph(path string) (*pangraph.Graph, error) {
	g := pangraph.New()
	if err := load(path, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SaveCore writes a core segment list to path.
func SaveCore(path string, core []pangraph.Node) error {
	return save(path, core)
}

// LoadCore reads a list written by SaveCore.
func LoadCore(path string) ([]pangraph.Node, error) {
	var core []pangraph.Node
	if err := load(path, &core); err != nil {
		return nil, err
	}
	return core, nil
}

func save(path string, v any) error {
	f, err := simpgio.CreateAtomic(path)
	if err != nil {
		return storageError(err, "save %s", path)
	}
	defer f.Abort()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return storageError(err, "save %s", path)
	}
	if err := gob.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return storageError(err, "encode %s", path)
	}
	if err := zw.Close(); err != nil {
		return storageError(err, "flush %s", path)
	}
	return storageError(f.Commit(), "save %s", path)
}

func load(path string, v any) error {
	r, err := simpgio.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "load")
	}
	defer r.Close()
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	return nil
}
