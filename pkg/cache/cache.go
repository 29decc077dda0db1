// Package cache stores derived pipeline artifacts, such as built graphs, so
// repeated runs over the same inputs skip the expensive stages.
//
// Entries are opaque byte slices addressed by keys from a [Keyer]. Keys are
// content addressed: they hash the input files and every option that
// changes the result, so a changed input never hits a stale entry.
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for
// shared runs and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/simpg/pkg/observability"
)

// TTLs per artifact kind. Zero means no expiry.
const (
	TTLGraph = 30 * 24 * time.Hour
	TTLCore  = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is reported
	// as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

// keyType is the artifact kind of key, used to label hook events.
func keyType(key string) string {
	// Scoped keys carry extra prefixes; the kind is the segment before the
	// hash.
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return key
	}
	return parts[len(parts)-2]
}

func reportGet(ctx context.Context, key string, hit bool) {
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
}

var _ Cache = NullCache{}
