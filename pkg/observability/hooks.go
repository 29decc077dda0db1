// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about graph construction, walk extraction, pipeline
// stages and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetWalkHooks(&myWalkHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, "walks")
//	// ... extract walks ...
//	observability.Pipeline().OnStageComplete(ctx, "walks", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from graph construction.
type BuildHooks interface {
	OnBuildStart(segments, links int)
	OnBuildComplete(nodes, edges, unresolved int, duration time.Duration)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from pipeline stages
// (build, walks, core, population, simulate).
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// =============================================================================
// Walk Hooks
// =============================================================================

// WalkHooks receives per-sample events from walk extraction.
type WalkHooks interface {
	// OnSampleComplete records a finished sample. length is 0 for samples
	// without a walk.
	OnSampleComplete(ctx context.Context, sample string, length int, duration time.Duration)

	// OnApproximation records a region that fell back to the approximate
	// search, with the number of required elements it left uncovered.
	OnApproximation(ctx context.Context, sample string, uncoveredNodes, uncoveredEdges int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(int, int)                       {}
func (NoopBuildHooks) OnBuildComplete(int, int, int, time.Duration) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string)                         {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}

// NoopWalkHooks is a no-op implementation of WalkHooks.
type NoopWalkHooks struct{}

func (NoopWalkHooks) OnSampleComplete(context.Context, string, int, time.Duration) {}
func (NoopWalkHooks) OnApproximation(context.Context, string, int, int)           {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Registry
// =============================================================================

// slot holds the registered implementation of one hook interface.
type slot[T any] struct {
	mu   sync.RWMutex
	hook T
	noop T
}

func newSlot[T any](noop T) *slot[T] {
	return &slot[T]{hook: noop, noop: noop}
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hook
}

// set replaces the hook. A nil interface value keeps the current one.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.hook = s.noop
	s.mu.Unlock()
}

var (
	buildHooks    = newSlot[BuildHooks](NoopBuildHooks{})
	pipelineHooks = newSlot[PipelineHooks](NoopPipelineHooks{})
	walkHooks     = newSlot[WalkHooks](NoopWalkHooks{})
	cacheHooks    = newSlot[CacheHooks](NoopCacheHooks{})
)

// SetBuildHooks registers the hooks called by graph construction.
func SetBuildHooks(h BuildHooks) { buildHooks.set(h) }

// SetPipelineHooks registers the hooks called around every pipeline stage.
// Register before starting a run; nil is ignored, use [Reset] to clear.
func SetPipelineHooks(h PipelineHooks) { pipelineHooks.set(h) }

// SetWalkHooks registers the hooks called by walk extraction.
func SetWalkHooks(h WalkHooks) { walkHooks.set(h) }

// SetCacheHooks registers the hooks called by cache reads and writes.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h) }

// Build returns the registered build hooks.
func Build() BuildHooks { return buildHooks.get() }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return pipelineHooks.get() }

// Walks returns the registered walk hooks.
func Walks() WalkHooks { return walkHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// Reset restores every hook to its no-op default.
func Reset() {
	buildHooks.reset()
	pipelineHooks.reset()
	walkHooks.reset()
	cacheHooks.reset()
}
