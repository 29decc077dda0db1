// Package pangraph provides the oriented pangenome graph.
//
// A [Node] is a segment identifier paired with a [Strand]; the forward and
// reverse orientation of a segment are separate vertices. A [Graph] stores
// nodes with a provenance rank and directed edges with a rank and a traversal
// weight. Insertion order is preserved everywhere so that graph construction
// and pruning are reproducible.
//
// # Usage
//
//	g := pangraph.New()
//	g.AddNode(pangraph.Fwd("s1"), 0)
//	g.AddNode(pangraph.Fwd("s2"), 0)
//	_ = g.AddEdge(pangraph.Fwd("s1"), pangraph.Fwd("s2"), pangraph.EdgeAttr{})
//
// Segment identifiers are expected to end in an integer ("s1042"); the
// number orders segments along the linear reference (see [SegmentNumber]
// and [LinearRange]).
package pangraph
