package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/matzehuels/simpg/pkg/errors"
	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/pipeline"
	"github.com/matzehuels/simpg/pkg/store"
)

// Flag groups shared by the stage commands. Each binds directly into a
// pipeline.Options so the run command and the single-stage commands accept
// the same names.

func bindGFAFlag(fs *pflag.FlagSet, in *pipeline.InputOptions) {
	fs.StringVarP(&in.GFA, "gfa", "g", "", "rGFA file (plain, gzip or zstd)")
}

func bindBEDFlag(fs *pflag.FlagSet, in *pipeline.InputOptions) {
	fs.StringVarP(&in.BED, "bed", "b", "", "bubble region file")
}

func bindSampleFlags(fs *pflag.FlagSet, in *pipeline.InputOptions) {
	fs.StringVarP(&in.Samples, "samples", "s", "", "sample list, one name per line")
	fs.IntVar(&in.Ploidy, "ploidy", 0, "expand every sample into name.1..name.N haplotypes")
}

func bindWalkFlags(fs *pflag.FlagSet, w *pipeline.WalkOptions) {
	fs.IntVarP(&w.Workers, "workers", "j", 0, "samples solved concurrently (default: number of CPUs)")
	fs.Float64Var(&w.MaxDetour, "max-detour", pipeline.DefaultMaxDetour, "largest detour accepted by the approximate search")
	fs.Float64Var(&w.Ceiling, "ceiling", pipeline.DefaultCeiling, "state space bound of the exact search")
}

func bindStoreFlags(fs *pflag.FlagSet, s *store.Config) {
	fs.StringVar(&s.Backend, "store", store.BackendFile, "walk store backend: file, redis, mongo")
	fs.StringVarP(&s.Path, "walks", "w", "", "walk file (file backend)")
	fs.StringVar(&s.URL, "store-url", "", "redis or mongo URL")
	fs.StringVar(&s.RunID, "run-id", "", "walk store namespace (redis, mongo)")
	fs.StringVar(&s.Database, "database", "", "MongoDB database (default simpg)")
}

func bindNameFlags(fs *pflag.FlagSet, s *pipeline.SimulateOptions) {
	fs.StringVarP(&s.Name, "name", "n", pipeline.DefaultName, "population name, prefix of every output")
	fs.StringVarP(&s.OutDir, "out-dir", "o", pipeline.DefaultOutDir, "output directory")
}

func bindSimulateFlags(fs *pflag.FlagSet, s *pipeline.SimulateOptions) {
	fs.IntVarP(&s.Count, "count", "c", pipeline.DefaultCount, "number of simulated genomes")
	fs.BoolVar(&s.Human, "human", false, "name chromosomes 23 and 24 chrX and chrY")
	fs.IntVar(&s.MaxSteps, "max-steps", pipeline.DefaultMaxSteps, "step bound of a single random walk")
	fs.Uint64Var(&s.Seed, "seed", 0, "seed of the first simulation (0 picks one)")
	fs.StringVar(&s.Weights, "weights", "", "edge weight JSON file (read, or written with --random-weights)")
	fs.BoolVar(&s.RandomWeights, "random-weights", false, "draw random edge weights")
}

// loadGraph reads a graph written by build or population: JSON when the
// name says so, the compressed binary form otherwise.
func loadGraph(path string) (*pangraph.Graph, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "a graph file is required")
	}
	if isJSON(path) {
		return simpgio.ImportJSON(path)
	}
	return store.LoadGraph(path)
}

func saveGraph(path string, g *pangraph.Graph) error {
	if isJSON(path) {
		return simpgio.ExportJSON(g, path)
	}
	return store.SaveGraph(path, g)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// parseWalk reads a comma-separated node list such as "s1+,s5-,s2+".
func parseWalk(s string) (pangraph.Walk, error) {
	if s == "" {
		return nil, nil
	}
	var w pangraph.Walk
	for _, part := range strings.Split(s, ",") {
		n, err := pangraph.ParseNode(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		w = append(w, n)
	}
	return w, nil
}
