package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/builder"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/pipeline"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		opts    pipeline.Options
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the variation graph from an rGFA and its bubble regions",
		Long: `Build the oriented segment graph.

With --simple every link is added in both orientations and no BED file is
needed; such graphs can be inspected but not used for walk extraction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			if err := opts.ValidateForBuild(); err != nil {
				return err
			}
			opts.Logger = c.Logger

			in, err := pipeline.LoadInputs(opts.Input)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			g, rep, hit, err := runner.Build(cmd.Context(), in, opts)
			if err != nil {
				return err
			}
			prog.done("Graph built")

			printSuccess("Built graph")
			printGraph(g, hit)
			if rep != nil {
				printBuildReport(rep)
			}
			if output != "" {
				if err := saveGraph(output, g); err != nil {
					return err
				}
				printFile(output)
				printNextStep("Inspect it", fmt.Sprintf("%s inspect %s", appName, output))
			}
			return nil
		},
	}

	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindBEDFlag(cmd.Flags(), &opts.Input)
	cmd.Flags().BoolVar(&opts.Input.Simple, "simple", false, "ignore regions and add every link in both orientations")
	cmd.Flags().StringVar(&output, "out", "", "write the graph here (.json for JSON, binary otherwise)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the graph cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild even when the graph is cached")

	return cmd
}

func printBuildReport(rep *builder.Report) {
	printKeyValue("links", fmt.Sprint(rep.Links))
	if rep.SkippedLinks > 0 {
		printKeyValue("skipped", fmt.Sprint(rep.SkippedLinks))
	}
	if rep.Doubled > 0 {
		printKeyValue("doubled", fmt.Sprint(rep.Doubled))
	}
	if rep.Deferred > 0 {
		printKeyValue("deferred", fmt.Sprint(rep.Deferred))
	}
	if rep.Pruned > 0 {
		printKeyValue("pruned", fmt.Sprint(rep.Pruned))
	}
	if n := len(rep.Unresolved); n > 0 {
		printWarning("%d deferred links could not be resolved", n)
		for i, p := range rep.Unresolved {
			if i == 5 {
				printDetail("... and %d more", n-i)
				break
			}
			printDetail("%s -> %s", p.From, p.To)
		}
	}
}

// loadOrBuild reads graphPath when given, otherwise builds the graph from
// the inputs through the runner's cache.
func loadOrBuild(cmd *cobra.Command, runner *pipeline.Runner, graphPath string, in *pipeline.Inputs, opts pipeline.Options) (*pangraph.Graph, error) {
	if graphPath != "" {
		return loadGraph(graphPath)
	}
	g, _, _, err := runner.Build(cmd.Context(), in, opts)
	return g, err
}
