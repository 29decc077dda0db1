package pangraph

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// has not been added to the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// has not been added to the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// EdgeAttr holds the attributes carried by a directed edge. Rank is the
// provenance marker copied from the link record; Weight is the traversal cost
// used by shortest-path searches.
type EdgeAttr struct {
	Rank   int
	Weight float64
}

// Edge is a directed connection between two oriented nodes.
type Edge struct {
	From, To Node
	EdgeAttr
}

type edgeKey struct{ from, to Node }

// Graph is a directed graph over oriented segments.
//
// Nodes are kept in insertion order and every iteration (Nodes, Sources,
// Sinks, Successors, Edges) follows that order, so algorithms that pick the
// first or the n-th node behave deterministically. Adding an edge that already
// exists overwrites its attributes.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation; concurrent readers are fine once construction is done.
type Graph struct {
	order []Node
	ranks map[Node]int
	out   map[Node][]Node
	in    map[Node][]Node
	attrs map[edgeKey]EdgeAttr
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		ranks: make(map[Node]int),
		out:   make(map[Node][]Node),
		in:    make(map[Node][]Node),
		attrs: make(map[edgeKey]EdgeAttr),
	}
}

// AddNode inserts n with the given rank. Re-adding an existing node updates
// its rank and keeps its original position.
func (g *Graph) AddNode(n Node, rank int) {
	if _, ok := g.ranks[n]; !ok {
		g.order = append(g.order, n)
	}
	g.ranks[n] = rank
}

// HasNode reports whether n is in the graph.
func (g *Graph) HasNode(n Node) bool {
	_, ok := g.ranks[n]
	return ok
}

// Rank returns the rank of n.
func (g *Graph) Rank(n Node) (int, bool) {
	r, ok := g.ranks[n]
	return r, ok
}

// AddEdge connects from to to. Both endpoints must already exist.
// When the edge is present its attributes are replaced.
func (g *Graph) AddEdge(from, to Node, attr EdgeAttr) error {
	if !g.HasNode(from) {
		return ErrUnknownSourceNode
	}
	if !g.HasNode(to) {
		return ErrUnknownTargetNode
	}
	k := edgeKey{from, to}
	if _, ok := g.attrs[k]; !ok {
		g.out[from] = append(g.out[from], to)
		g.in[to] = append(g.in[to], from)
	}
	g.attrs[k] = attr
	return nil
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to Node) bool {
	_, ok := g.attrs[edgeKey{from, to}]
	return ok
}

// EdgeAttr returns the attributes of from -> to.
func (g *Graph) EdgeAttr(from, to Node) (EdgeAttr, bool) {
	a, ok := g.attrs[edgeKey{from, to}]
	return a, ok
}

// RemoveEdge deletes from -> to if present.
func (g *Graph) RemoveEdge(from, to Node) {
	k := edgeKey{from, to}
	if _, ok := g.attrs[k]; !ok {
		return
	}
	delete(g.attrs, k)
	g.out[from] = slices.DeleteFunc(g.out[from], func(n Node) bool { return n == to })
	g.in[to] = slices.DeleteFunc(g.in[to], func(n Node) bool { return n == from })
}

// RemoveNodes deletes the given nodes and every edge touching them.
func (g *Graph) RemoveNodes(nodes ...Node) {
	if len(nodes) == 0 {
		return
	}
	drop := make(map[Node]bool, len(nodes))
	for _, n := range nodes {
		if g.HasNode(n) {
			drop[n] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	for n := range drop {
		for _, v := range g.out[n] {
			delete(g.attrs, edgeKey{n, v})
			if !drop[v] {
				g.in[v] = slices.DeleteFunc(g.in[v], func(u Node) bool { return u == n })
			}
		}
		for _, u := range g.in[n] {
			delete(g.attrs, edgeKey{u, n})
			if !drop[u] {
				g.out[u] = slices.DeleteFunc(g.out[u], func(v Node) bool { return v == n })
			}
		}
		delete(g.out, n)
		delete(g.in, n)
		delete(g.ranks, n)
	}
	g.order = slices.DeleteFunc(g.order, func(n Node) bool { return drop[n] })
}

// Successors returns the direct successors of n in edge insertion order.
// The returned slice is a copy.
func (g *Graph) Successors(n Node) []Node { return slices.Clone(g.out[n]) }

// Predecessors returns the direct predecessors of n.
func (g *Graph) Predecessors(n Node) []Node { return slices.Clone(g.in[n]) }

// OutDegree returns the number of edges leaving n.
func (g *Graph) OutDegree(n Node) int { return len(g.out[n]) }

// InDegree returns the number of edges entering n.
func (g *Graph) InDegree(n Node) int { return len(g.in[n]) }

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.order) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.attrs) }

// Edges returns every edge ordered by source node then insertion.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.attrs))
	for _, u := range g.order {
		for _, v := range g.out[u] {
			edges = append(edges, Edge{From: u, To: v, EdgeAttr: g.attrs[edgeKey{u, v}]})
		}
	}
	return edges
}

// Sources returns nodes without incoming edges in insertion order.
func (g *Graph) Sources() []Node {
	var result []Node
	for _, n := range g.order {
		if len(g.in[n]) == 0 {
			result = append(result, n)
		}
	}
	return result
}

// Sinks returns nodes without outgoing edges in insertion order.
func (g *Graph) Sinks() []Node {
	var result []Node
	for _, n := range g.order {
		if len(g.out[n]) == 0 {
			result = append(result, n)
		}
	}
	return result
}

// Subgraph returns a new graph induced by the nodes for which keep returns
// true. Node and edge order are preserved.
func (g *Graph) Subgraph(keep func(Node) bool) *Graph {
	sub := New()
	for _, n := range g.order {
		if keep(n) {
			sub.AddNode(n, g.ranks[n])
		}
	}
	for _, u := range sub.order {
		for _, v := range g.out[u] {
			if sub.HasNode(v) {
				_ = sub.AddEdge(u, v, g.attrs[edgeKey{u, v}])
			}
		}
	}
	return sub
}

// Induced returns the subgraph on the listed nodes that exist in g. Node
// order follows the argument; duplicates are ignored. Cost is proportional to
// the listed nodes and their degree, not to the size of g.
func (g *Graph) Induced(nodes []Node) *Graph {
	sub := New()
	for _, n := range nodes {
		if r, ok := g.ranks[n]; ok {
			sub.AddNode(n, r)
		}
	}
	for _, u := range sub.order {
		for _, v := range g.out[u] {
			if sub.HasNode(v) {
				_ = sub.AddEdge(u, v, g.attrs[edgeKey{u, v}])
			}
		}
	}
	return sub
}
