package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/simpg/pkg/pangraph"
	"github.com/matzehuels/simpg/pkg/pipeline"
	"github.com/matzehuels/simpg/pkg/walks"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // headings, counts
	colorGreen  = lipgloss.Color("35")  // done, cache hits
	colorYellow = lipgloss.Color("220") // warnings
	colorBlue   = lipgloss.Color("75")  // suggested commands
	colorWhite  = lipgloss.Color("255") // paths and values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // separators, hints
)

var (
	// StyleTitle renders headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim renders hints and separators.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders paths and plain values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber renders counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleSuccess renders completed steps.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	// StyleWarning renders warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	separator   = " · "
)

// stdout receives every result line. Logs and the spinner go to stderr.
var stdout io.Writer = os.Stdout

// =============================================================================
// Status Lines
// =============================================================================

func status(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	status(StyleSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(StyleWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(lipgloss.NewStyle().Foreground(colorGray), iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output path.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Pipeline Summaries
// =============================================================================

// printGraph prints the size of g on one line. cached marks graphs read
// from the cache.
func printGraph(g *pangraph.Graph, cached bool) {
	fmt.Fprintln(stdout, "  "+graphLine(g.NodeCount(), g.EdgeCount(), cached))
}

func graphLine(nodes, edges int, cached bool) string {
	origin := lipgloss.NewStyle().Foreground(colorGray).Render("fresh")
	if cached {
		origin = StyleSuccess.Render("cached")
	}
	return strings.Join([]string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodes)),
		StyleDim.Render(fmt.Sprintf("%d edges", edges)),
		origin,
	}, StyleDim.Render(separator))
}

// printWalkStats breaks the extracted regions down by how they were solved.
func printWalkStats(st walks.Stats) {
	printDetail("%d exact, %d approximated, %d linear regions", st.Exact, st.Approximated, st.Linear)
	if st.Failed > 0 || st.MissingRank > 0 {
		printWarning("%d regions without a path, %d samples missing from the graph", st.Failed, st.MissingRank)
	}
}

// printTimings prints the wall time of each stage that ran.
func printTimings(s pipeline.Stats) {
	for _, t := range []struct {
		stage string
		d     time.Duration
	}{
		{pipeline.StageBuild, s.BuildTime},
		{pipeline.StageWalks, s.WalksTime},
		{pipeline.StageCore, s.CoreTime},
		{pipeline.StagePopulation, s.PopulationTime},
		{pipeline.StageSimulate, s.SimulateTime},
	} {
		if t.d > 0 {
			printKeyValue(t.stage, t.d.Round(time.Millisecond).String())
		}
	}
}
