package pathfind

import (
	"errors"
	"math"
	"slices"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// DefaultCeiling bounds the estimated state space of [FindConstrainedPath]:
// edges x 2^|required nodes| x 2^|required edges|.
const DefaultCeiling = 3e11

// maxRequired is the number of required nodes, and separately of required
// edges, that fit a state bitset.
const maxRequired = 64

var (
	// ErrUnreachable is returned when the source cannot reach the target at
	// all, or when either endpoint is missing from the graph.
	ErrUnreachable = errors.New("target unreachable from source")

	// ErrNoConstrainedPath is returned when the target is reachable but no
	// path visits every required node and edge.
	ErrNoConstrainedPath = errors.New("no path covers every required element")

	// ErrTooManyRequired is returned when more than 64 nodes or 64 edges
	// are required.
	ErrTooManyRequired = errors.New("too many required elements for exact search")
)

// Required returns the nodes and edges of g whose rank equals rank, in graph
// order.
func Required(g *pangraph.Graph, rank int) ([]pangraph.Node, []pangraph.Edge) {
	var nodes []pangraph.Node
	for _, n := range g.Nodes() {
		if r, _ := g.Rank(n); r == rank {
			nodes = append(nodes, n)
		}
	}
	var edges []pangraph.Edge
	for _, e := range g.Edges() {
		if e.Rank == rank {
			edges = append(edges, e)
		}
	}
	return nodes, edges
}

// Feasible reports whether an exact search over a graph with the given edge
// count and required set sizes stays below ceiling. The product is compared
// in log space so large required sets do not overflow.
func Feasible(edges, requiredNodes, requiredEdges int, ceiling float64) bool {
	if edges == 0 {
		return true
	}
	return math.Log2(float64(edges))+float64(requiredNodes+requiredEdges) < math.Log2(ceiling)
}

// state is a search position: the current node and the sets of required
// nodes and edges visited on the way there.
type state struct {
	node  int32
	nodes uint64
	edges uint64
}

// FindConstrainedPath returns a path from source to target that visits every
// node and every edge of g whose rank equals rank. Among such paths it
// returns one with the fewest edges.
//
// # Algorithm
//
// Nodes that cannot reach target are discarded first (reverse breadth-first
// search). The remaining space is searched breadth-first over states
// (node, visited required nodes, visited required edges); required elements
// are indexed so each visited set is a 64-bit mask. A state is expanded at
// most once and a parent map rebuilds the path.
//
// # Performance
//
// O(E x 2^|RN| x 2^|RE|) time and space in the worst case. Callers guard
// large inputs with [Feasible].
func FindConstrainedPath(g *pangraph.Graph, source, target pangraph.Node, rank int) (pangraph.Walk, error) {
	reqNodes, reqEdges := Required(g, rank)
	if len(reqNodes) > maxRequired || len(reqEdges) > maxRequired {
		return nil, ErrTooManyRequired
	}
	reachable := g.Ancestors(target)
	if !reachable[source] {
		return nil, ErrUnreachable
	}

	nodes := g.Nodes()
	index := make(map[pangraph.Node]int32, len(nodes))
	for i, n := range nodes {
		index[n] = int32(i)
	}
	nodeBit := make(map[int32]uint64, len(reqNodes))
	for i, n := range reqNodes {
		nodeBit[index[n]] = 1 << uint(i)
	}
	type arc struct{ from, to int32 }
	edgeBit := make(map[arc]uint64, len(reqEdges))
	for i, e := range reqEdges {
		edgeBit[arc{index[e.From], index[e.To]}] = 1 << uint(i)
	}
	succ := make([][]int32, len(nodes))
	for i, n := range nodes {
		for _, v := range g.Successors(n) {
			if reachable[v] {
				succ[i] = append(succ[i], index[v])
			}
		}
	}

	fullNodes := mask(len(reqNodes))
	fullEdges := mask(len(reqEdges))
	src, dst := index[source], index[target]

	start := state{node: src, nodes: nodeBit[src]}
	parent := map[state]state{start: start}
	queue := []state{start}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.node == dst && cur.nodes == fullNodes && cur.edges == fullEdges {
			return rebuild(cur, parent, nodes), nil
		}
		for _, v := range succ[cur.node] {
			next := state{
				node:  v,
				nodes: cur.nodes | nodeBit[v],
				edges: cur.edges | edgeBit[arc{cur.node, v}],
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
		queue[head] = state{}
	}
	return nil, ErrNoConstrainedPath
}

func mask(n int) uint64 {
	if n >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(n) - 1
}

func rebuild(end state, parent map[state]state, nodes []pangraph.Node) pangraph.Walk {
	var path pangraph.Walk
	for st := end; ; {
		path = append(path, nodes[st.node])
		p := parent[st]
		if p == st {
			break
		}
		st = p
	}
	slices.Reverse(path)
	return path
}
