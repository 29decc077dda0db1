package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/bed"
	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pipeline"
	"github.com/matzehuels/simpg/pkg/simulate"
	"github.com/matzehuels/simpg/pkg/store"
)

// coreCommand creates the core command.
func (c *CLI) coreCommand() *cobra.Command {
	var (
		opts   pipeline.Options
		output string
	)

	cmd := &cobra.Command{
		Use:   "core",
		Short: "List the reference segments every sample walk visits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			opts.SetDefaults()
			if opts.Input.GFA == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "a GFA file is required")
			}
			segs, err := gfa.ReadFile(opts.Input.GFA)
			if err != nil {
				return err
			}
			ws, err := store.Open(ctx, &opts.Store)
			if err != nil {
				return err
			}
			defer ws.Close()

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			core, _, err := runner.Core(ctx, ws, &pipeline.Inputs{Segments: segs}, "", opts)
			if err != nil {
				return err
			}
			if output == "" {
				output = opts.CorePath()
			}
			if err := store.SaveCore(output, core); err != nil {
				return err
			}
			printSuccess("%d core segments", len(core))
			printFile(output)
			return nil
		},
	}

	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindStoreFlags(cmd.Flags(), &opts.Store)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	cmd.Flags().StringVar(&output, "out", "", "core segment file (default <out-dir>/<name>_core.bin)")

	return cmd
}

// populationCommand creates the population command.
func (c *CLI) populationCommand() *cobra.Command {
	var (
		opts   pipeline.Options
		output string
	)

	cmd := &cobra.Command{
		Use:   "population",
		Short: "Merge the sample walks into the population graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			opts.SetDefaults()

			var regions *bed.Regions
			if opts.Simulate.LinearReference {
				if opts.Input.BED == "" {
					return errors.New(errors.ErrCodeInvalidConfig, "--linear-reference needs the BED file")
				}
				var err error
				if regions, err = bed.ReadFile(opts.Input.BED); err != nil {
					return err
				}
			}
			ws, err := store.Open(ctx, &opts.Store)
			if err != nil {
				return err
			}
			defer ws.Close()

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			g, err := runner.Population(ctx, ws, &pipeline.Inputs{Regions: regions}, opts)
			if err != nil {
				return err
			}
			if output == "" {
				output = opts.PopulationPath()
			}
			if err := saveGraph(output, g); err != nil {
				return err
			}
			printSuccess("Population graph")
			printGraph(g, false)
			printFile(output)
			return nil
		},
	}

	bindBEDFlag(cmd.Flags(), &opts.Input)
	bindStoreFlags(cmd.Flags(), &opts.Store)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	cmd.Flags().BoolVar(&opts.Simulate.LinearReference, "linear-reference", false, "add the reference chain of every chromosome")
	cmd.Flags().StringVar(&output, "out", "", "graph file (default <out-dir>/<name>_population.bin)")

	return cmd
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		opts      pipeline.Options
		graphPath string
		corePath  string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Sample genomes from the population graph",
		Long: `Sample genomes from the population graph.

Every simulation writes <name>_simulate_fasta/<name>_simulateNNN.fa and
the rvcf variant records relative to the reference next to it. Simulation
i uses seed --seed + i - 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			opts.SetDefaults()
			if opts.Input.GFA == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "a GFA file is required")
			}
			if graphPath == "" {
				graphPath = opts.PopulationPath()
			}
			if corePath == "" {
				corePath = opts.CorePath()
			}

			segs, err := gfa.ReadFile(opts.Input.GFA)
			if err != nil {
				return err
			}
			pg, err := loadGraph(graphPath)
			if err != nil {
				return err
			}
			core, err := store.LoadCore(corePath)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			results, err := runner.Simulate(ctx, pg, &pipeline.Inputs{Segments: segs}, core, opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Simulated %d genomes", len(results)))
			printSimulations(results)
			return nil
		},
	}

	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	bindSimulateFlags(cmd.Flags(), &opts.Simulate)
	cmd.Flags().StringVar(&graphPath, "graph", "", "population graph (default <out-dir>/<name>_population.bin)")
	cmd.Flags().StringVar(&corePath, "core", "", "core segment file (default <out-dir>/<name>_core.bin)")

	return cmd
}

func printSimulations(results []simulate.Result) {
	for _, r := range results {
		printSuccess("Simulation %03d: %d chromosomes, %d variants (seed %d)", r.Index, r.Chromosomes, r.Variants, r.Seed)
		if r.Inverted > 0 {
			printDetail("%d inverted pieces left out of the rvcf", r.Inverted)
		}
		printFile(r.FASTA)
		printFile(r.RVCF)
	}
}

// subsampleCommand creates the subsample command.
func (c *CLI) subsampleCommand() *cobra.Command {
	var (
		opts  pipeline.Options
		inDir string
	)

	cmd := &cobra.Command{
		Use:   "subsample",
		Short: "Keep a random fraction of simulated variants",
		Long: `Keep a random fraction of the variant records of every simulation and
rebuild the matching genome by splicing the kept records into the
reference. Results go to <out-dir>/<name>_partial.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			opts.SetDefaults()
			if err := opts.ValidateForBuild(); err != nil {
				return err
			}
			if err := errors.ValidateFraction("fraction", opts.Simulate.Fraction); err != nil {
				return err
			}
			if inDir == "" {
				inDir = opts.RVCFDir()
			}

			segs, err := gfa.ReadFile(opts.Input.GFA)
			if err != nil {
				return err
			}
			regions, err := bed.ReadFile(opts.Input.BED)
			if err != nil {
				return err
			}
			s := opts.Simulate
			kept, err := simulate.SubsampleFiles(ctx, inDir, opts.SubsampleDir(), s.Name, s.Count, s.Seed, regions, segs,
				simulate.SubsampleOptions{Fraction: s.Fraction, Human: s.Human, Logger: c.Logger})
			if err != nil {
				return err
			}
			for i, n := range kept {
				printSuccess("Simulation %03d: kept %d records", i+1, n)
			}
			printFile(opts.SubsampleDir())
			return nil
		},
	}

	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindBEDFlag(cmd.Flags(), &opts.Input)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	cmd.Flags().IntVarP(&opts.Simulate.Count, "count", "c", pipeline.DefaultCount, "number of simulations to subsample")
	cmd.Flags().Uint64Var(&opts.Simulate.Seed, "seed", 0, "seed of the first simulation")
	cmd.Flags().BoolVar(&opts.Simulate.Human, "human", false, "name chromosomes 23 and 24 chrX and chrY")
	cmd.Flags().Float64VarP(&opts.Simulate.Fraction, "fraction", "f", 0.5, "fraction of records kept")
	cmd.Flags().StringVar(&inDir, "in", "", "directory of the rvcf files (default <out-dir>/<name>_simulate_rvcf)")

	return cmd
}
