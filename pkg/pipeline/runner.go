package pipeline

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/builder"
	"github.com/matzehuels/simpg/pkg/cache"
	"github.com/matzehuels/simpg/pkg/observability"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/population"
	"github.com/matzehuels/simpg/pkg/randwalk"
	"github.com/matzehuels/simpg/pkg/simulate"
	"github.com/matzehuels/simpg/pkg/store"
	"github.com/matzehuels/simpg/pkg/walks"
)

// Runner executes pipeline stages against a cache.
//
// A Runner holds no per-run state; one value can serve concurrent runs with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// selects [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// stage runs fn between the pipeline hooks and prefixes its error with the
// stage name.
func (r *Runner) stage(ctx context.Context, name string, fn func() error) (time.Duration, error) {
	observability.Pipeline().OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	observability.Pipeline().OnStageComplete(ctx, name, d, err)
	if err != nil {
		return d, fmt.Errorf("%s: %w", name, err)
	}
	r.Logger.Debug("stage finished", "stage", name, "elapsed", d.Round(time.Millisecond))
	return d, nil
}

// Execute runs every stage: build, walks, core, population, simulate and,
// when a fraction is set, subsample.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := &Result{}

	var in *Inputs
	var graphKey string
	d, err := r.stage(ctx, StageBuild, func() error {
		var err error
		if in, err = LoadInputs(opts.Input); err != nil {
			return err
		}
		graphKey = r.Keyer.GraphKey(in.GraphKeyOpts())
		res.Graph, res.Report, res.CacheInfo.BuildHit, err = r.Build(ctx, in, opts)
		return err
	})
	res.Stats.BuildTime = d
	if err != nil {
		return nil, err
	}
	r.Logger.Info("graph ready", "nodes", res.Graph.NodeCount(), "edges", res.Graph.EdgeCount(),
		"cached", res.CacheInfo.BuildHit, "elapsed", d.Round(time.Millisecond))

	samples, err := LoadSamples(opts.Input)
	if err != nil {
		return nil, err
	}
	res.Samples = len(samples)

	ws, err := store.Open(ctx, &opts.Store)
	if err != nil {
		return nil, err
	}
	defer ws.Close()
	res.RunID = opts.Store.RunID

	d, err = r.stage(ctx, StageWalks, func() error {
		if opts.Store.Backend == store.BackendFile && !opts.Refresh {
			if _, err := os.Stat(opts.Store.Path); err == nil {
				r.Logger.Info("reusing walk file", "path", opts.Store.Path)
				res.CacheInfo.WalksReused = true
				return nil
			}
		}
		var err error
		if res.WalkStats, err = r.ExtractWalks(ctx, res.Graph, in, samples, ws, opts); err != nil {
			if fs, ok := ws.(*store.FileStore); ok {
				fs.Abort()
			}
			return err
		}
		return store.Flush(ws)
	})
	res.Stats.WalksTime = d
	if err != nil {
		return nil, err
	}

	coreKey := r.Keyer.CoreKey(cache.CoreKeyOpts{
		Graph:     graphKey,
		Samples:   cache.Hash([]byte(strings.Join(samples, "\n"))),
		MaxDetour: opts.Walks.MaxDetour,
		Ceiling:   opts.Walks.Ceiling,
	})
	res.Stats.CoreTime, err = r.stage(ctx, StageCore, func() error {
		var err error
		res.Core, res.CacheInfo.CoreHit, err = r.Core(ctx, ws, in, coreKey, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Info("core segments", "count", len(res.Core), "cached", res.CacheInfo.CoreHit)

	res.Stats.PopulationTime, err = r.stage(ctx, StagePopulation, func() error {
		var err error
		res.Population, err = r.Population(ctx, ws, in, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Stats.SimulateTime, err = r.stage(ctx, StageSimulate, func() error {
		var err error
		res.Simulations, err = r.Simulate(ctx, res.Population, in, res.Core, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if opts.Simulate.Fraction > 0 && len(res.Simulations) > 0 {
		_, err = r.stage(ctx, StageSubsample, func() error {
			var err error
			res.Subsampled, err = r.Subsample(ctx, in, res.Simulations[0].Seed, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Build constructs the graph for in, consulting the cache first unless
// opts.Refresh is set. The report is nil on a cache hit.
func (r *Runner) Build(ctx context.Context, in *Inputs, opts Options) (*pangraph.Graph, *builder.Report, bool, error) {
	r.applyLogger(&opts)
	key := r.Keyer.GraphKey(in.GraphKeyOpts())

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			r.Logger.Warn("cache read failed", "err", err)
		case hit:
			g := pangraph.New()
			if err := g.GobDecode(data); err == nil {
				return g, nil, true, nil
			}
			r.Logger.Warn("discarding unreadable cache entry", "key", key)
		}
	}

	bopts := builder.Options{Logger: opts.Logger}
	var (
		g   *pangraph.Graph
		rep *builder.Report
		err error
	)
	if in.Regions == nil {
		g, rep, err = builder.BuildSimple(in.Segments, bopts)
	} else {
		g, rep, err = builder.Build(in.Segments, in.Regions, bopts)
	}
	if err != nil {
		return nil, nil, false, err
	}

	if data, err := g.GobEncode(); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLGraph); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		}
	}
	return g, rep, false, nil
}

// ExtractWalks derives the walks of samples into sink.
func (r *Runner) ExtractWalks(ctx context.Context, g *pangraph.Graph, in *Inputs, samples []string, sink walks.Sink, opts Options) (walks.Stats, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	st, err := walks.Extract(ctx, g, in.Segments, in.Regions, samples, sink, opts.walkOptions())
	if err != nil {
		return st, err
	}
	r.Logger.Info("walks extracted", "samples", st.Samples, "exact", st.Exact,
		"approximated", st.Approximated, "linear", st.Linear, "failed", st.Failed)
	if st.UncoveredNodes+st.UncoveredEdges > 0 {
		r.Logger.Debug("approximation left elements uncovered",
			"nodes", st.UncoveredNodes, "edges", st.UncoveredEdges)
	}
	return st, nil
}

// Core computes the core segments of ws. A non-empty key caches the result.
func (r *Runner) Core(ctx context.Context, ws population.Walks, in *Inputs, key string, opts Options) ([]pangraph.Node, bool, error) {
	r.applyLogger(&opts)
	if key != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var core []pangraph.Node
			if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&core); err == nil {
				return core, true, nil
			}
		}
	}
	core, err := population.CoreSegments(ctx, ws, in.Segments, population.Options{Logger: opts.Logger})
	if err != nil {
		return nil, false, err
	}
	if key != "" {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(core); err == nil {
			if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLCore); err != nil {
				r.Logger.Warn("cache write failed", "err", err)
			}
		}
	}
	return core, false, nil
}

// Population builds the population graph from ws.
func (r *Runner) Population(ctx context.Context, ws population.Walks, in *Inputs, opts Options) (*pangraph.Graph, error) {
	r.applyLogger(&opts)
	g, err := population.BuildGraph(ctx, ws, in.Regions, population.Options{
		LinearReference: opts.Simulate.LinearReference,
		Logger:          opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Info("population graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// Simulate runs opts.Simulate.Count simulations over the population graph.
func (r *Runner) Simulate(ctx context.Context, pg *pangraph.Graph, in *Inputs, core []pangraph.Node, opts Options) ([]simulate.Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	sopts := opts.simulateOptions()
	var err error
	if sopts.Weights, err = r.weights(pg, opts.Simulate); err != nil {
		return nil, err
	}
	return simulate.Population(ctx, pg, in.Segments, core, sopts)
}

// weights returns the edge weights selected by opts, nil for uniform walks.
func (r *Runner) weights(pg *pangraph.Graph, opts SimulateOptions) (randwalk.Weights, error) {
	switch {
	case opts.RandomWeights:
		w := randwalk.RandomEdgeWeights(pg, randwalk.NewRand(opts.Seed))
		if opts.Weights != "" {
			if err := randwalk.SaveWeights(opts.Weights, w); err != nil {
				return nil, err
			}
			r.Logger.Info("edge weights saved", "path", opts.Weights, "edges", len(w))
		}
		return w, nil
	case opts.Weights != "":
		return randwalk.LoadWeights(opts.Weights)
	}
	return nil, nil
}

// Subsample keeps opts.Simulate.Fraction of the variant records of every
// simulation, starting from seed.
func (r *Runner) Subsample(ctx context.Context, in *Inputs, seed uint64, opts Options) ([]int, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	s := opts.Simulate
	return simulate.SubsampleFiles(ctx, opts.RVCFDir(), opts.SubsampleDir(), s.Name, s.Count, seed, in.Regions, in.Segments,
		simulate.SubsampleOptions{Fraction: s.Fraction, Human: s.Human, Logger: opts.Logger})
}
