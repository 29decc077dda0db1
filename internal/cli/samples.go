package cli

import (
	"bufio"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/walks"
)

// samplesCommand creates the samples command group.
func (c *CLI) samplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Work with sample lists",
	}
	cmd.AddCommand(c.samplesExpandCommand())
	return cmd
}

func (c *CLI) samplesExpandCommand() *cobra.Command {
	var ploidy int

	cmd := &cobra.Command{
		Use:   "expand <samples.txt>",
		Short: "Print every sample as name.1 .. name.N haplotypes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := walks.ReadSamples(args[0])
			if err != nil {
				return err
			}
			expanded, err := walks.ExpandPloidy(names, ploidy)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, n := range expanded {
				w.WriteString(n)
				w.WriteByte('\n')
			}
			c.Logger.Debug("expanded sample list", "samples", len(names), "haplotypes", len(expanded))
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&ploidy, "ploidy", "p", 2, "haplotypes per sample")
	return cmd
}
