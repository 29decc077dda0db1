// Package store persists pipeline artifacts: per-sample walks, built graphs
// and core segment lists.
//
// Walks are streamed through the [WalkStore] interface, which has a file
// backend (a zstd-compressed gob stream), a Redis backend (one list per run)
// and a MongoDB backend (one document per sample). Graphs and core lists are
// single files written atomically.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// WalkStore is an append-only sequence of (sample, walk) records. Records
// are returned by Iterate in append order. A nil walk is stored as such and
// marks a sample whose walk could not be derived.
type WalkStore interface {
	Append(ctx context.Context, sample string, walk pangraph.Walk) error
	Iterate(ctx context.Context, fn func(sample string, walk pangraph.Walk) error) error
	Close() error
}

// Flusher is implemented by stores that buffer appends. Records become
// visible to Iterate only after Flush.
type Flusher interface {
	Flush() error
}

// Flush publishes the pending appends of s when it buffers them.
func Flush(s WalkStore) error {
	if f, ok := s.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a walk store backend.
type Config struct {
	Backend string `toml:"backend"` // file (default), redis or mongo
	Path    string `toml:"path"`    // file backend: walk file
	URL     string `toml:"url"`     // redis or mongo connection URL
	RunID   string `toml:"run_id"`  // redis and mongo namespace; generated when empty

	// Database is the MongoDB database name (default "simpg").
	Database string `toml:"database"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// ValidateRunID checks that id is a UUID as produced by NewRunID.
func ValidateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "run id %q", id)
	}
	return nil
}

// Open returns the walk store described by cfg. For the redis and mongo
// backends, cfg.RunID is filled in when empty so callers can report it.
func Open(ctx context.Context, cfg *Config) (WalkStore, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file walk store needs a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendRedis, BackendMongo:
		if cfg.URL == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s walk store needs a URL", cfg.Backend)
		}
		if cfg.RunID == "" {
			cfg.RunID = NewRunID()
		} else if err := ValidateRunID(cfg.RunID); err != nil {
			return nil, err
		}
		if cfg.Backend == BackendRedis {
			s, err := DialRedis(ctx, cfg.URL, cfg.RunID)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		s, err := DialMongo(ctx, cfg.URL, cfg.Database, cfg.RunID)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown walk store backend %q", cfg.Backend)
}

// record is the serialized form shared by the file and redis backends.
type record struct {
	Sample  string
	Missing bool
	Walk    pangraph.Walk
}

func newRecord(sample string, walk pangraph.Walk) record {
	return record{Sample: sample, Missing: walk == nil, Walk: walk}
}

func (r record) walk() pangraph.Walk {
	if r.Missing {
		return nil
	}
	if r.Walk == nil {
		return pangraph.Walk{}
	}
	return r.Walk
}

func storageError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeStorage, err, format, args...)
}

// Collect reads every record of s into memory.
func Collect(ctx context.Context, s WalkStore) (samples []string, walks []pangraph.Walk, err error) {
	err = s.Iterate(ctx, func(sample string, w pangraph.Walk) error {
		samples = append(samples, sample)
		walks = append(walks, w)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("collect walks: %w", err)
	}
	return samples, walks, nil
}
