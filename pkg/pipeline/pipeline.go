// Package pipeline runs the SimPG stages end to end with caching.
//
// # Stages
//
//  1. Build: parse the segment and region files and construct the
//     bidirected graph (cached by input content).
//  2. Walks: derive one walk per sample into a walk store.
//  3. Core: intersect the walks into the core segments.
//  4. Population: join the walks into the population graph.
//  5. Simulate: random genomes from the population graph, optionally
//     followed by partial variant subsampling.
//
// Every stage can be run alone through the [Runner] methods; [Runner.Execute]
// chains them. CLI commands and the TOML run configuration both fill
// [Options], so defaults live here only.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input: pipeline.InputOptions{GFA: "hprc.gfa.gz", BED: "hprc.bed", Samples: "samples.txt"},
//	    Simulate: pipeline.SimulateOptions{Name: "eas", Count: 10},
//	})
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/simpg/pkg/builder"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/pathfind"
	"github.com/matzehuels/simpg/pkg/simulate"
	"github.com/matzehuels/simpg/pkg/store"
	"github.com/matzehuels/simpg/pkg/walks"
)

// Stage names reported to observability hooks and logs.
const (
	StageBuild      = "build"
	StageWalks      = "walks"
	StageCore       = "core"
	StagePopulation = "population"
	StageSimulate   = "simulate"
	StageSubsample  = "subsample"
)

// Defaults shared by the CLI flags and the run configuration.
const (
	DefaultMaxDetour = pathfind.DefaultMaxDetour
	DefaultCeiling   = pathfind.DefaultCeiling
	DefaultName      = simulate.DefaultName
	DefaultCount     = 1
	DefaultMaxSteps  = simulate.DefaultMaxSteps
	DefaultOutDir    = "."
)

// Options configures a pipeline run. Field tags name the keys of the TOML
// run configuration.
type Options struct {
	Input    InputOptions    `toml:"input"`
	Walks    WalkOptions     `toml:"walks"`
	Simulate SimulateOptions `toml:"simulate"`
	Store    store.Config    `toml:"store"`

	// Refresh recomputes cached artifacts and existing walk files.
	Refresh bool        `toml:"-"`
	Logger  *log.Logger `toml:"-"`
}

// InputOptions names the input files.
type InputOptions struct {
	GFA     string `toml:"gfa"`
	BED     string `toml:"bed"`
	Samples string `toml:"samples"`

	// Ploidy expands every listed sample into name.1..name.ploidy. Zero or
	// one uses the names as listed.
	Ploidy int `toml:"ploidy"`

	// Simple builds the graph from links alone, with both strands of every
	// segment, ignoring the region file. Only the build stage accepts it.
	Simple bool `toml:"simple"`
}

// WalkOptions tunes per-sample walk derivation.
type WalkOptions struct {
	Workers   int     `toml:"workers"`
	MaxDetour float64 `toml:"max_detour"`
	Ceiling   float64 `toml:"ceiling"`
}

// SimulateOptions configures population graph and genome synthesis.
type SimulateOptions struct {
	Name            string `toml:"name"`
	OutDir          string `toml:"out_dir"`
	Count           int    `toml:"count"`
	Human           bool   `toml:"human"`
	MaxSteps        int    `toml:"max_steps"`
	Seed            uint64 `toml:"seed"`
	LinearReference bool   `toml:"linear_reference"`

	// Weights is a JSON edge weight file. With RandomWeights set, fresh
	// weights are drawn and written there; otherwise it is read.
	Weights       string `toml:"weights"`
	RandomWeights bool   `toml:"random_weights"`

	// Fraction of rvcf records kept by the subsample stage. Zero skips the
	// stage.
	Fraction float64 `toml:"fraction"`
}

// SetDefaults fills zero fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Walks.MaxDetour <= 0 {
		o.Walks.MaxDetour = DefaultMaxDetour
	}
	if o.Walks.Ceiling <= 0 {
		o.Walks.Ceiling = DefaultCeiling
	}
	s := &o.Simulate
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.OutDir == "" {
		s.OutDir = DefaultOutDir
	}
	if s.Count <= 0 {
		s.Count = DefaultCount
	}
	if s.MaxSteps <= 0 {
		s.MaxSteps = DefaultMaxSteps
	}
	if o.Store.Backend == "" {
		o.Store.Backend = store.BackendFile
	}
	if o.Store.Backend == store.BackendFile && o.Store.Path == "" {
		o.Store.Path = o.WalksPath()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForBuild checks the inputs of the build stage.
func (o *Options) ValidateForBuild() error {
	if o.Input.GFA == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a GFA file is required")
	}
	if o.Input.BED == "" && !o.Input.Simple {
		return errors.New(errors.ErrCodeInvalidConfig, "a BED file is required unless the build is simple")
	}
	return nil
}

// Validate checks a full run. Call SetDefaults first.
func (o *Options) Validate() error {
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if o.Input.Simple {
		return errors.New(errors.ErrCodeInvalidConfig, "walks need a region-based graph; simple builds only support the build stage")
	}
	if o.Input.Samples == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a sample list is required")
	}
	if o.Input.Ploidy < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ploidy must not be negative, got %d", o.Input.Ploidy)
	}
	if err := errors.ValidateOutputName(o.Simulate.Name); err != nil {
		return err
	}
	if err := errors.ValidateFraction("fraction", o.Simulate.Fraction); err != nil {
		return err
	}
	switch o.Store.Backend {
	case store.BackendFile, store.BackendRedis, store.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown walk store backend %q", o.Store.Backend)
	}
	return nil
}

// WalksPath is the default walk file of a run.
func (o *Options) WalksPath() string {
	return filepath.Join(o.Simulate.OutDir, o.Simulate.Name+"_walks.bin")
}

// CorePath is the default core segment file of a run.
func (o *Options) CorePath() string {
	return filepath.Join(o.Simulate.OutDir, o.Simulate.Name+"_core.bin")
}

// PopulationPath is the default population graph file of a run.
func (o *Options) PopulationPath() string {
	return filepath.Join(o.Simulate.OutDir, o.Simulate.Name+"_population.bin")
}

// RVCFDir is where the simulate stage writes its rvcf files.
func (o *Options) RVCFDir() string {
	return filepath.Join(o.Simulate.OutDir, o.Simulate.Name+"_simulate_rvcf")
}

// SubsampleDir is where the subsample stage writes its outputs.
func (o *Options) SubsampleDir() string {
	return filepath.Join(o.Simulate.OutDir, o.Simulate.Name+"_partial")
}

func (o *Options) walkOptions() walks.Options {
	return walks.Options{
		MaxDetour: o.Walks.MaxDetour,
		Ceiling:   o.Walks.Ceiling,
		Workers:   o.Walks.Workers,
		Logger:    o.Logger,
	}
}

func (o *Options) simulateOptions() simulate.Options {
	return simulate.Options{
		Name:     o.Simulate.Name,
		OutDir:   o.Simulate.OutDir,
		Count:    o.Simulate.Count,
		Human:    o.Simulate.Human,
		MaxSteps: o.Simulate.MaxSteps,
		Seed:     o.Simulate.Seed,
		Logger:   o.Logger,
	}
}

// Result holds the outputs of [Runner.Execute].
type Result struct {
	// RunID names the walk store namespace of redis and mongo runs.
	RunID string

	Graph       *pangraph.Graph
	Report      *builder.Report // nil when the graph came from the cache
	Samples     int
	WalkStats   walks.Stats
	Core        []pangraph.Node
	Population  *pangraph.Graph
	Simulations []simulate.Result
	Subsampled  []int // kept records per simulation

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records stage durations.
type Stats struct {
	BuildTime      time.Duration
	WalksTime      time.Duration
	CoreTime       time.Duration
	PopulationTime time.Duration
	SimulateTime   time.Duration
}

// CacheInfo tells which stages reused earlier results.
type CacheInfo struct {
	BuildHit    bool
	WalksReused bool // an existing walk file was read instead of extracting
	CoreHit     bool
}
