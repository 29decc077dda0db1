package walks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/observability"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Sink receives finished walks. A nil walk marks a sample without a rank.
type Sink interface {
	Append(ctx context.Context, sample string, walk pangraph.Walk) error
}

type outcome struct {
	walk  pangraph.Walk
	stats Stats
}

// Extract derives the walk of every sample and appends it to sink.
//
// Samples are solved concurrently by up to opts.Workers goroutines, but
// sink sees them in the order given. At most 2*Workers walks are held in
// memory at a time; a walk is dropped as soon as sink has it. The first
// error from a sample or from sink cancels the remaining work.
func Extract(ctx context.Context, g *pangraph.Graph, segs *gfa.Table, regions *bed.Regions, samples []string, sink Sink, opts Options) (Stats, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers + 1)

	slots := make([]chan outcome, len(samples))
	for i := range slots {
		slots[i] = make(chan outcome, 1)
	}
	window := make(chan struct{}, 2*opts.Workers)

	var total Stats
	eg.Go(func() error {
		for i, name := range samples {
			var out outcome
			select {
			case out = <-slots[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := sink.Append(ctx, name, out.walk); err != nil {
				return fmt.Errorf("store walk of %s: %w", name, err)
			}
			<-window
			total.add(out.stats)
			logger.Info("walk stored", "sample", name, "nodes", len(out.walk), "progress", fmt.Sprintf("%d/%d", i+1, len(samples)))
		}
		return nil
	})

produce:
	for i, name := range samples {
		select {
		case window <- struct{}{}:
		case <-ctx.Done():
			break produce
		}
		eg.Go(func() error {
			start := time.Now()
			walk, st, err := ForSample(ctx, g, segs, regions, name, opts)
			if err != nil {
				return fmt.Errorf("sample %s: %w", name, err)
			}
			slots[i] <- outcome{walk: walk, stats: st}
			observability.Walks().OnSampleComplete(ctx, name, len(walk), time.Since(start))
			return nil
		})
	}

	err := eg.Wait()
	return total, err
}
