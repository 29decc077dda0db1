// Package walks derives one walk per sample from a built pangenome graph.
//
// A sample's walk visits, region by region, every node and edge that
// carries the sample's rank. Each region is solved independently with the
// exact search in [pathfind.FindConstrainedPath] when its state space is
// small enough and with [pathfind.PrizeCollectingPath] otherwise; regions
// without any element of the sample's rank follow the linear reference.
//
// [Extract] runs [ForSample] for many samples on a bounded worker pool and
// streams finished walks to a [Sink] in sample order.
package walks

import (
	"context"
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/observability"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/pathfind"
)

// Options configures walk derivation. Zero fields take defaults.
type Options struct {
	MaxDetour float64     // approximator detour bound (default 4)
	Ceiling   float64     // exact search state ceiling (default 3e11)
	Workers   int         // concurrent samples for Extract (default GOMAXPROCS)
	Logger    *log.Logger // defaults to a discarding logger
}

func (o Options) withDefaults() Options {
	if o.MaxDetour <= 0 {
		o.MaxDetour = pathfind.DefaultMaxDetour
	}
	if o.Ceiling <= 0 {
		o.Ceiling = pathfind.DefaultCeiling
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Stats counts how regions were resolved.
type Stats struct {
	Samples      int
	MissingRank  int // samples owning no segment
	Regions      int
	Linear       int // regions without the sample's rank
	Exact        int
	Approximated int
	Failed       int // regions with no path at all; skipped in the walk

	UncoveredNodes int
	UncoveredEdges int
}

func (s *Stats) add(o Stats) {
	s.Samples += o.Samples
	s.MissingRank += o.MissingRank
	s.Regions += o.Regions
	s.Linear += o.Linear
	s.Exact += o.Exact
	s.Approximated += o.Approximated
	s.Failed += o.Failed
	s.UncoveredNodes += o.UncoveredNodes
	s.UncoveredEdges += o.UncoveredEdges
}

// ForSample returns the walk of sample through g. The rank of the sample is
// that of the first segment it owns; a sample owning no segment yields a nil
// walk and no error. Every chromosome starts with the forward node of its
// first reference segment.
//
// Regions for which neither search finds a path are logged and left out of
// the walk. Errors are returned only for malformed region boundaries and
// for cancellation, which is checked between regions.
func ForSample(ctx context.Context, g *pangraph.Graph, segs *gfa.Table, regions *bed.Regions, sample string, opts Options) (pangraph.Walk, Stats, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("sample", sample)
	st := Stats{Samples: 1}

	target, ok := segs.RankOfSample(sample)
	if !ok {
		logger.Warn("no segment belongs to sample")
		st.MissingRank = 1
		return nil, st, nil
	}

	sources, _ := regions.LinearSourcesAndSinks()
	var walk pangraph.Walk
	var chrom string
	for i, r := range regions.All() {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		if i == 0 || r.Chromosome != chrom {
			chrom = r.Chromosome
			walk = append(walk, pangraph.Fwd(sources[chrom]))
		}
		st.Regions++
		path, err := regionPath(ctx, g, r, sample, target, opts, logger, &st)
		if err != nil {
			return nil, st, err
		}
		if len(path) > 0 {
			walk = append(walk, path[1:]...)
		}
	}
	return walk, st, nil
}

// regionPath solves one region. A nil path means the region is skipped.
func regionPath(ctx context.Context, g *pangraph.Graph, r bed.Region, sample string, target int, opts Options, logger *log.Logger, st *Stats) (pangraph.Walk, error) {
	both := make([]pangraph.Node, 0, 2*len(r.Segments))
	for _, id := range r.Segments {
		both = append(both, pangraph.Fwd(id), pangraph.Rev(id))
	}
	region := g.Induced(both)

	if !carriesRank(region, target) {
		st.Linear++
		return pangraph.LinearWalk(r.First(), r.Last())
	}

	sub := region.Subgraph(func(n pangraph.Node) bool {
		rank, _ := region.Rank(n)
		return rank <= target
	})
	for _, e := range sub.Edges() {
		if e.Rank > target {
			sub.RemoveEdge(e.From, e.To)
		}
	}

	start, end := pangraph.Fwd(r.First()), pangraph.Fwd(r.Last())
	reqNodes, reqEdges := pathfind.Required(sub, target)
	logger.Debug("region", "from", start, "to", end, "required_nodes", len(reqNodes), "required_edges", len(reqEdges))

	if pathfind.Feasible(sub.EdgeCount(), len(reqNodes), len(reqEdges), opts.Ceiling) {
		path, err := pathfind.FindConstrainedPath(sub, start, end, target)
		if err == nil {
			st.Exact++
			return path, nil
		}
		logger.Debug("exact search failed", "from", start, "to", end, "err", err)
	} else {
		logger.Info("preparing approximation", "from", start, "to", end)
	}

	res, err := pathfind.PrizeCollectingPath(sub, start, end, reqNodes, reqEdges, opts.MaxDetour)
	if err != nil {
		logger.Error("approximation failed", "from", start, "to", end)
		st.Failed++
		return nil, nil
	}
	st.Approximated++
	st.UncoveredNodes += res.UncoveredNodes
	st.UncoveredEdges += res.UncoveredEdges
	logger.Debug("approximated",
		"nodes", len(reqNodes), "uncovered_nodes", res.UncoveredNodes,
		"edges", len(reqEdges), "uncovered_edges", res.UncoveredEdges)
	observability.Walks().OnApproximation(ctx, sample, res.UncoveredNodes, res.UncoveredEdges)
	return res.Path, nil
}

func carriesRank(g *pangraph.Graph, rank int) bool {
	for _, n := range g.Nodes() {
		if r, _ := g.Rank(n); r == rank {
			return true
		}
	}
	for _, e := range g.Edges() {
		if e.Rank == rank {
			return true
		}
	}
	return false
}
