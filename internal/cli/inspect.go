package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/render/nodelink"
)

// maxListed bounds the source and sink lists of the inspect table.
const maxListed = 8

type inspectOpts struct {
	dot, svg, png string
	detailed      bool
	gfaPath       string
	highlight     string
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <graph>",
		Short: "Summarize a graph file and optionally draw it",
		Long: `Summarize a graph written by build or population: node and edge counts,
weakly connected components, and the nodes without predecessors or
successors.

--dot, --svg and --png draw the graph with Graphviz. Drawing is meant for
small graphs and single chromosomes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			printInspectReport(args[0], pangraph.Inspect(g))

			if opts.dot == "" && opts.svg == "" && opts.png == "" {
				return nil
			}
			nopts := nodelink.Options{Detailed: opts.detailed}
			if nopts.Highlight, err = parseWalk(opts.highlight); err != nil {
				return err
			}
			if opts.gfaPath != "" {
				if nopts.Segments, err = gfa.ReadFile(opts.gfaPath); err != nil {
					return err
				}
			}
			return writeDrawings(cmd, nodelink.ToDOT(g, nopts), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dot, "dot", "", "write Graphviz DOT source here")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "render an SVG here")
	cmd.Flags().StringVar(&opts.png, "png", "", "render a PNG here")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with rank and, with --gfa, sequence length")
	cmd.Flags().StringVarP(&opts.gfaPath, "gfa", "g", "", "rGFA file for detailed labels")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "comma-separated walk to highlight, e.g. s1+,s5-,s2+")

	return cmd
}

func writeDrawings(cmd *cobra.Command, dot string, opts inspectOpts) error {
	if opts.dot != "" {
		if err := os.WriteFile(opts.dot, []byte(dot), 0o644); err != nil {
			return err
		}
		printFile(opts.dot)
	}
	if opts.svg != "" {
		svg, err := nodelink.RenderSVG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svg, svg, 0o644); err != nil {
			return err
		}
		printFile(opts.svg)
	}
	if opts.png != "" {
		png, err := nodelink.RenderPNG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.png, png, 0o644); err != nil {
			return err
		}
		printFile(opts.png)
	}
	return nil
}

func printInspectReport(path string, rep pangraph.Report) {
	fmt.Fprintln(stdout, StyleTitle.Render(path))
	fmt.Fprintln(stdout, renderReportTable(rep))
	if rep.Components != len(rep.ZeroIn) || rep.Components != len(rep.ZeroOut) {
		printWarning("expected one source and one sink per component")
	} else {
		fmt.Fprintln(stdout, StyleSuccess.Render(iconSuccess + " one source and one sink per component"))
	}
}

func renderReportTable(rep pangraph.Report) string {
	rows := [][]string{
		{"nodes", StyleNumber.Render(fmt.Sprint(rep.Nodes))},
		{"edges", StyleNumber.Render(fmt.Sprint(rep.Edges))},
		{"components", StyleNumber.Render(fmt.Sprint(rep.Components))},
		{"sources", fmt.Sprintf("%d  %s", len(rep.ZeroIn), StyleDim.Render(listNodes(rep.ZeroIn)))},
		{"sinks", fmt.Sprintf("%d  %s", len(rep.ZeroOut), StyleDim.Render(listNodes(rep.ZeroOut)))},
	}
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).PaddingRight(2)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func listNodes(nodes []pangraph.Node) string {
	parts := make([]string, 0, min(len(nodes), maxListed)+1)
	for i, n := range nodes {
		if i == maxListed {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " ")
}
