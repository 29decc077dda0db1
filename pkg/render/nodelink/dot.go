package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/simpg/pkg/gfa"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the rank, and the segment length when Segments is set,
	// to node labels.
	Detailed bool

	// Segments supplies sequence lengths for detailed labels.
	Segments *gfa.Table

	// Highlight is drawn on top of the graph.
	Highlight pangraph.Walk
}

// rankFills cycles through alternative ranks; rank 0 is always white.
var rankFills = []string{"lightblue", "palegreen", "khaki", "lightpink", "plum", "lightsalmon"}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *pangraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		rank, _ := g.Rank(n)
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, rank, opts))}
		if rank > 0 {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%s", rankFills[(rank-1)%len(rankFills)]))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.String(), strings.Join(attrs, ", "))
	}

	onWalk := walkEdges(opts.Highlight)
	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q", e.From.String(), e.To.String())
		if onWalk[[2]pangraph.Node{e.From, e.To}] {
			buf.WriteString(" [color=red, penwidth=3]")
		} else if e.Rank > 0 {
			buf.WriteString(" [style=dashed]")
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n pangraph.Node, rank int, opts Options) string {
	if !opts.Detailed {
		return n.String()
	}
	parts := []string{n.String(), fmt.Sprintf("rank: %d", rank)}
	if opts.Segments != nil {
		if s, err := opts.Segments.Segment(n.Segment); err == nil {
			parts = append(parts, fmt.Sprintf("len: %d", len(s.Sequence)))
		}
	}
	return strings.Join(parts, "\n")
}

func walkEdges(w pangraph.Walk) map[[2]pangraph.Node]bool {
	edges := make(map[[2]pangraph.Node]bool, len(w))
	for i := 1; i < len(w); i++ {
		edges[[2]pangraph.Node{w[i-1], w[i]}] = true
	}
	return edges
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the svg tag with one whose viewBox starts at
// the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
