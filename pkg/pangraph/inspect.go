package pangraph

// Report summarizes the shape of a graph after construction.
type Report struct {
	Nodes      int
	Edges      int
	Components int
	ZeroIn     []Node
	ZeroOut    []Node
}

// Inspect computes a [Report] for g.
func Inspect(g *Graph) Report {
	return Report{
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		Components: len(g.WeakComponents()),
		ZeroIn:     g.Sources(),
		ZeroOut:    g.Sinks(),
	}
}
