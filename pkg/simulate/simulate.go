// Package simulate synthesizes genomes for a simulated population by random
// traversal of a population graph.
//
// Every simulation walks each chromosome (a weakly connected component of
// the population graph) from core segment to core segment, writing the
// visited sequence as one FASTA record per chromosome. Wherever the walk
// leaves the linear reference, rvcf records describe the alternative path:
//
//	(s3,s7)	(s3+,s4+,s5+,s6+,s7+)	(s3+,s12-,s13+,s7+)
//
// [Subsample] later keeps a fraction of those records and rebuilds the
// genome from the reference with only the kept alternatives spliced in.
package simulate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"time"

	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/population"
	"github.com/matzehuels/simpg/pkg/randwalk"
)

// Defaults.
const (
	DefaultName     = "my"
	DefaultMaxSteps = 1000
)

// Options configures a batch of simulations.
type Options struct {
	Name      string // population name, used in output paths
	OutDir    string
	Count     int // number of simulations
	Human     bool
	MaxSteps  int    // step ceiling of one random walk attempt
	Seed      uint64 // zero draws a random seed
	LineWidth int

	// Weights switches from uniform to weighted random walks.
	Weights randwalk.Weights

	Logger *log.Logger
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.OutDir == "" {
		o.OutDir = "."
	}
	if o.Count <= 0 {
		o.Count = 1
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.Seed == 0 {
		o.Seed = rand.Uint64()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Validate checks option values that have no default.
func (o Options) Validate() error {
	return errors.ValidateOutputName(o.Name)
}

// Paths returns the FASTA and rvcf paths of simulation i (1-based).
func Paths(outDir, name string, i int) (fa, rvcf string) {
	base := baseName(name, i)
	fa = filepath.Join(outDir, name+"_simulate_fasta", base+".fa")
	rvcf = filepath.Join(outDir, name+"_simulate_rvcf", base+".rvcf")
	return fa, rvcf
}

func baseName(name string, i int) string {
	return fmt.Sprintf("%s_simulate%03d", name, i)
}

// Result describes one finished simulation.
type Result struct {
	Index       int
	Seed        uint64
	FASTA       string
	RVCF        string
	Chromosomes int
	Variants    int
	Inverted    int // pieces running backwards, left out of the rvcf
	Duration    time.Duration
}

// Population runs opts.Count simulations over the population graph g,
// writing one FASTA and one rvcf file per simulation. Simulation i uses
// seed opts.Seed+i-1, so a batch is reproducible from its first seed.
func Population(ctx context.Context, g *pangraph.Graph, segs *gfa.Table, core []pangraph.Node, opts Options) ([]Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	results := make([]Result, 0, opts.Count)
	for i := 1; i <= opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		opts.Logger.Info("simulation started", "n", fmt.Sprintf("%03d", i))
		res, err := simulateToFiles(ctx, g, segs, core, i, opts)
		if err != nil {
			return results, err
		}
		opts.Logger.Info("simulation finished", "n", fmt.Sprintf("%03d", i),
			"chromosomes", res.Chromosomes, "variants", res.Variants,
			"elapsed", res.Duration.Round(time.Millisecond))
		results = append(results, res)
	}
	return results, nil
}

func simulateToFiles(ctx context.Context, g *pangraph.Graph, segs *gfa.Table, core []pangraph.Node, i int, opts Options) (Result, error) {
	faPath, rvcfPath := Paths(opts.OutDir, opts.Name, i)
	fa, err := simpgio.CreateAtomic(faPath)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeStorage, err, "create fasta")
	}
	defer fa.Abort()
	rvcf, err := simpgio.CreateAtomic(rvcfPath)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeStorage, err, "create rvcf")
	}
	defer rvcf.Abort()

	seed := opts.Seed + uint64(i-1)
	faBuf := bufio.NewWriterSize(fa, 1<<20)
	res, err := Simulate(ctx, g, segs, core, randwalk.NewRand(seed), faBuf, rvcf, opts)
	if err != nil {
		return res, err
	}
	if err := faBuf.Flush(); err != nil {
		return res, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
	}
	if err := fa.Commit(); err != nil {
		return res, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
	}
	if err := rvcf.Commit(); err != nil {
		return res, errors.Wrap(errors.ErrCodeStorage, err, "write rvcf")
	}
	res.Index, res.Seed, res.FASTA, res.RVCF = i, seed, faPath, rvcfPath
	return res, nil
}

// Simulate runs one simulation, writing FASTA records to fa and rvcf
// records to rvcf. Components without a core segment are skipped with a
// warning but still consume a chromosome number.
func Simulate(ctx context.Context, g *pangraph.Graph, segs *gfa.Table, core []pangraph.Node, rng *rand.Rand, fa, rvcf io.Writer, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	start := time.Now()
	var res Result

	isCore := make(map[pangraph.Node]bool, len(core))
	for _, n := range core {
		isCore[n] = true
	}
	ref := segs.LinearReference()
	isRef := func(n pangraph.Node) bool {
		if n.Strand != pangraph.Forward {
			return false
		}
		s, err := segs.Segment(n.Segment)
		return err == nil && s.Sample == ref
	}

	fw := fasta.NewWriter(fa, opts.LineWidth)
	vw := bufio.NewWriter(rvcf)
	for idx, comp := range g.WeakComponents() {
		name := chromosomeName(idx+1, opts.Human)
		var cores []pangraph.Node
		for _, n := range comp {
			if isCore[n] {
				cores = append(cores, n)
			}
		}
		if len(cores) == 0 {
			opts.Logger.Warn("chromosome has no core segment, skipping", "chromosome", name, "nodes", len(comp))
			continue
		}
		population.SortBySegment(cores)

		seq, err := appendSequence(nil, segs, cores[0])
		if err != nil {
			return res, err
		}
		for j := 1; j < len(cores); j++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			u, v := cores[j-1], cores[j]
			walk, err := opts.walk(ctx, g, u, v, rng)
			if err != nil {
				return res, errors.Wrap(errors.ErrCodeNoPath, err, "%s: %s to %s", name, u, v)
			}
			if seq, err = appendSequence(seq, segs, walk[1:]...); err != nil {
				return res, err
			}
			backbone, err := pangraph.LinearWalk(u.Segment, v.Segment)
			if err != nil {
				return res, err
			}
			if slices.Equal(walk, backbone) {
				continue
			}
			vars, inv, err := variantsOf(walk, isRef)
			if err != nil {
				return res, err
			}
			for _, p := range inv {
				opts.Logger.Warn("skipping piece running against the reference",
					"chromosome", name, "from", p.start, "to", p.end, "walk", p.piece)
			}
			res.Inverted += len(inv)
			for _, rec := range vars {
				if _, err := fmt.Fprintln(vw, rec); err != nil {
					return res, errors.Wrap(errors.ErrCodeStorage, err, "write rvcf")
				}
			}
			res.Variants += len(vars)
		}
		if err := writeRecord(fw, name, seq); err != nil {
			return res, errors.Wrap(errors.ErrCodeStorage, err, "write fasta")
		}
		res.Chromosomes++
		opts.Logger.Debug("chromosome done", "chromosome", name, "length", len(seq))
	}
	if err := vw.Flush(); err != nil {
		return res, errors.Wrap(errors.ErrCodeStorage, err, "write rvcf")
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (o Options) walk(ctx context.Context, g *pangraph.Graph, u, v pangraph.Node, rng *rand.Rand) (pangraph.Walk, error) {
	if o.Weights != nil {
		return randwalk.Weighted(ctx, g, u, v, o.Weights, o.MaxSteps, rng)
	}
	return randwalk.Acyclic(ctx, g, u, v, o.MaxSteps, rng)
}
