package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/observability"
	"github.com/matzehuels/simpg/pkg/pipeline"
	"github.com/matzehuels/simpg/pkg/store"
)

// runCommand creates the run command, which chains every stage.
func (c *CLI) runCommand() *cobra.Command {
	var (
		opts    pipeline.Options
		noCache bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline from rGFA to simulated genomes",
		Long: `Run build, walk extraction, core segments, population graph and
simulation in one go, followed by subsampling when --fraction is set.

The built graph and the core segments are cached; an existing walk file is
reused unless --refresh is given.`,
		Example: `  simpg run -g hprc.gfa.zst -b bubbles.bed -s samples.txt -n pop -c 10 --seed 1
  simpg run --config run.toml --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			var sp *Spinner
			if quiet {
				c.Logger.SetLevel(log.WarnLevel)
				sp = newSpinner(ctx, os.Stderr, "Starting")
				observability.SetPipelineHooks(sp)
				defer observability.Reset()
				sp.Start()
				defer sp.Stop()
			}
			opts.Logger = c.Logger

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			res, err := runner.Execute(ctx, opts)
			if sp != nil {
				sp.Stop()
			}
			if err != nil {
				return err
			}
			prog.done("Pipeline finished")
			printRunResult(res, &opts)
			return nil
		},
	}

	fs := cmd.Flags()
	bindGFAFlag(fs, &opts.Input)
	bindBEDFlag(fs, &opts.Input)
	bindSampleFlags(fs, &opts.Input)
	bindWalkFlags(fs, &opts.Walks)
	bindStoreFlags(fs, &opts.Store)
	bindNameFlags(fs, &opts.Simulate)
	bindSimulateFlags(fs, &opts.Simulate)
	fs.BoolVar(&opts.Simulate.LinearReference, "linear-reference", false, "add the reference chain to the population graph")
	fs.Float64VarP(&opts.Simulate.Fraction, "fraction", "f", 0, "also keep this fraction of variants of every simulation")
	fs.BoolVar(&opts.Refresh, "refresh", false, "ignore cached graphs, cores and walk files")
	fs.BoolVar(&noCache, "no-cache", false, "disable the cache")
	fs.BoolVarP(&quiet, "quiet", "q", false, "show a spinner instead of log lines")

	return cmd
}

func printRunResult(res *pipeline.Result, opts *pipeline.Options) {
	printSuccess("Graph")
	printGraph(res.Graph, res.CacheInfo.BuildHit)

	if res.CacheInfo.WalksReused {
		printSuccess("Walks of %d samples (reused)", res.Samples)
	} else {
		printSuccess("Walks of %d samples", res.Samples)
		printWalkStats(res.WalkStats)
	}
	if opts.Store.Backend == store.BackendFile {
		printFile(opts.Store.Path)
	} else {
		printKeyValue("run id", res.RunID)
	}

	printSuccess("%d core segments", len(res.Core))
	printSuccess("Population graph")
	printGraph(res.Population, false)
	printSimulations(res.Simulations)

	if len(res.Subsampled) > 0 {
		printSuccess("Subsampled %s of the variants", fmt.Sprintf("%g", opts.Simulate.Fraction))
		printFile(opts.SubsampleDir())
	}
	fmt.Fprintln(stdout)
	printTimings(res.Stats)
}
