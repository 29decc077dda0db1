// Package nodelink renders pangenome graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render it in-process with Graphviz:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Nodes are drawn left to right in graph order. Reference nodes (rank 0)
// are white, alternative nodes are shaded by rank, and the edges of
// [Options.Highlight] are drawn in bold red so a sample walk can be traced
// through its bubbles.
//
// # Options
//
//   - Detailed: labels carry the node rank and, when Segments is set, the
//     sequence length.
//   - Highlight: a walk whose consecutive edges are emphasized.
//
// This package uses [github.com/goccy/go-graphviz], which bundles Graphviz
// as WebAssembly, so no system installation is needed.
package nodelink
