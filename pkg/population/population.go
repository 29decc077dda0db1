// Package population reduces a set of sample walks to the structures the
// simulator needs: the core segments shared by every walk and a population
// graph made of the steps the walks actually take.
package population

import (
	"cmp"
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Walks is a replayable source of sample walks, such as a store.WalkStore.
type Walks interface {
	Iterate(ctx context.Context, fn func(sample string, walk pangraph.Walk) error) error
}

// Options configures the reductions.
type Options struct {
	// LinearReference adds the reference chain source..sink of every
	// chromosome to the population graph.
	LinearReference bool

	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

// CoreSegments returns the nodes visited by every non-nil walk, restricted
// to forward nodes of segments that belong to the linear reference sample.
// The result is ordered by segment number.
func CoreSegments(ctx context.Context, walks Walks, segs *gfa.Table, opts Options) ([]pangraph.Node, error) {
	logger := opts.logger()
	start := time.Now()

	var core map[pangraph.Node]bool
	err := walks.Iterate(ctx, func(sample string, walk pangraph.Walk) error {
		if walk == nil {
			logger.Warn("skipping sample without walk", "sample", sample)
			return nil
		}
		seen := make(map[pangraph.Node]bool, len(walk))
		for _, n := range walk {
			seen[n] = true
		}
		if core == nil {
			core = seen
			return nil
		}
		for n := range core {
			if !seen[n] {
				delete(core, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ref := segs.LinearReference()
	out := make([]pangraph.Node, 0, len(core))
	for n := range core {
		if n.Strand != pangraph.Forward {
			continue
		}
		if s, err := segs.Segment(n.Segment); err == nil && s.Sample == ref {
			out = append(out, n)
		}
	}
	SortBySegment(out)
	logger.Info("core segments", "count", len(out), "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// SortBySegment orders nodes by segment number, then by id and strand.
func SortBySegment(nodes []pangraph.Node) {
	slices.SortFunc(nodes, func(a, b pangraph.Node) int {
		na, errA := pangraph.SegmentNumber(a.Segment)
		nb, errB := pangraph.SegmentNumber(b.Segment)
		if errA == nil && errB == nil && na != nb {
			return cmp.Compare(na, nb)
		}
		if c := cmp.Compare(a.Segment, b.Segment); c != 0 {
			return c
		}
		return cmp.Compare(a.Strand, b.Strand)
	})
}

// BuildGraph links consecutive nodes of every non-nil walk. Steps into a
// chromosome's first reference segment are skipped, so chromosomes stay
// separate components even though each walk runs through all of them.
func BuildGraph(ctx context.Context, walks Walks, regions *bed.Regions, opts Options) (*pangraph.Graph, error) {
	logger := opts.logger()
	start := time.Now()
	g := pangraph.New()

	err := walks.Iterate(ctx, func(sample string, walk pangraph.Walk) error {
		if walk == nil {
			logger.Warn("skipping sample without walk", "sample", sample)
			return nil
		}
		for i := 1; i < len(walk); i++ {
			if regions.IsSource(walk[i].Segment) {
				continue
			}
			link(g, walk[i-1], walk[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.LinearReference {
		sources, sinks := regions.LinearSourcesAndSinks()
		for _, chrom := range regions.Chromosomes() {
			chain, err := pangraph.LinearWalk(sources[chrom], sinks[chrom])
			if err != nil {
				return nil, err
			}
			for i := 1; i < len(chain); i++ {
				link(g, chain[i-1], chain[i])
			}
		}
	}

	logger.Info("population graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return g, nil
}

func link(g *pangraph.Graph, u, v pangraph.Node) {
	if !g.HasNode(u) {
		g.AddNode(u, 0)
	}
	if !g.HasNode(v) {
		g.AddNode(v, 0)
	}
	_ = g.AddEdge(u, v, pangraph.EdgeAttr{})
}
