package store

import (
	"context"
	"encoding/gob"
	stderrors "errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// FileStore keeps walks in a single zstd-compressed gob stream.
//
// Appends go to a temporary file that replaces the destination on Close,
// so an interrupted run never leaves a truncated walk file behind. Iterate
// reads the destination and fails while appends are pending.
type FileStore struct {
	path string

	mu  sync.Mutex
	f   *simpgio.AtomicFile
	zw  *zstd.Encoder
	enc *gob.Encoder
}

// NewFileStore returns a store backed by path. Nothing is created until the
// first Append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the destination file.
func (s *FileStore) Path() string { return s.path }

// Append writes one record.
func (s *FileStore) Append(ctx context.Context, sample string, walk pangraph.Walk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		f, err := simpgio.CreateAtomic(s.path)
		if err != nil {
			return storageError(err, "create walk file")
		}
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Abort()
			return storageError(err, "create walk file")
		}
		s.f, s.zw, s.enc = f, zw, gob.NewEncoder(zw)
	}
	return storageError(s.enc.Encode(newRecord(sample, walk)), "write walk of %s", sample)
}

// Close publishes pending records. The store stays usable: a later Append
// starts a new file that replaces this one.
func (s *FileStore) Close() error { return s.Flush() }

// Flush closes the compressed stream and renames the temporary file onto
// the destination.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return nil
	}
	f, zw := s.f, s.zw
	s.f, s.zw, s.enc = nil, nil, nil
	if err := zw.Close(); err != nil {
		f.Abort()
		return storageError(err, "flush walk file")
	}
	return storageError(f.Commit(), "publish walk file")
}

// Abort drops pending records without touching the destination.
func (s *FileStore) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return
	}
	s.zw.Close()
	s.f.Abort()
	s.f, s.zw, s.enc = nil, nil, nil
}

// Iterate calls fn for every record in the published file.
func (s *FileStore) Iterate(ctx context.Context, fn func(string, pangraph.Walk) error) error {
	s.mu.Lock()
	pending := s.enc != nil
	s.mu.Unlock()
	if pending {
		return errors.New(errors.ErrCodeStorage, "walk file %s is still being written", s.path)
	}
	return ReadWalks(ctx, s.path, fn)
}

// ReadWalks streams the records of a walk file. Compressed and
// uncompressed streams are both accepted.
func ReadWalks(ctx context.Context, path string, fn func(string, pangraph.Walk) error) error {
	r, err := simpgio.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "walk file")
	}
	defer r.Close()

	dec := gob.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "walk file %s", path)
		}
		if err := fn(rec.Sample, rec.walk()); err != nil {
			return err
		}
	}
}

var (
	_ WalkStore = (*FileStore)(nil)
	_ Flusher   = (*FileStore)(nil)
)
