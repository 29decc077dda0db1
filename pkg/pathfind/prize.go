package pathfind

import (
	"errors"
	"math"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// DefaultMaxDetour is the detour bound used for per-sample walks.
const DefaultMaxDetour = 4

// zeroDetourGain is the gain of an element that can be inserted without
// lengthening the tour.
const zeroDetourGain = 1e6

// ErrNoPath is returned when no source to target path exists.
var ErrNoPath = errors.New("no path between source and target")

// Result is the outcome of [PrizeCollectingPath].
type Result struct {
	Path pangraph.Walk

	// UncoveredNodes and UncoveredEdges count the requested elements the
	// path does not visit.
	UncoveredNodes int
	UncoveredEdges int
}

// element is a vertex of the compressed tour graph: either a node (start
// and end coincide) or a pseudo-vertex standing for a required edge.
type element struct {
	start, end pangraph.Node
	edge       bool
	weight     float64
}

// PrizeCollectingPath approximates a source to target path that covers as
// many of the given nodes and edges as possible.
//
// Every requested node and edge becomes a vertex of a complete compressed
// graph whose arc costs are shortest-path distances in g (plus the edge
// weight when entering an edge vertex). Starting from the tour
// [source, target], the element with the best gain is inserted repeatedly,
// where gain is 1/extra for an insertion that lengthens the tour by extra,
// and a large constant when extra is zero. Insertions whose extra cost
// exceeds maxDetour are never made. The final tour is expanded back into a
// node path with shortest subpaths.
//
// Source and target count as covered when they are among the requested
// nodes. When target cannot be reached, ErrNoPath is returned together with
// the uncovered counts.
func PrizeCollectingPath(g *pangraph.Graph, source, target pangraph.Node, nodes []pangraph.Node, edges []pangraph.Edge, maxDetour float64) (Result, error) {
	elems := []element{
		{start: source, end: source},
		{start: target, end: target},
	}
	seenNode := map[pangraph.Node]bool{source: true, target: true}
	for _, n := range nodes {
		if seenNode[n] {
			continue
		}
		seenNode[n] = true
		elems = append(elems, element{start: n, end: n})
	}
	seenEdge := make(map[[2]pangraph.Node]bool, len(edges))
	for _, e := range edges {
		k := [2]pangraph.Node{e.From, e.To}
		if seenEdge[k] {
			continue
		}
		seenEdge[k] = true
		w := e.Weight
		if attr, ok := g.EdgeAttr(e.From, e.To); ok {
			w = attr.Weight
		}
		elems = append(elems, element{start: e.From, end: e.To, edge: true, weight: w})
	}

	trees := make(map[pangraph.Node]*shortestPaths)
	for _, el := range elems {
		if _, ok := trees[el.end]; !ok {
			trees[el.end] = dijkstra(g, el.end)
		}
	}

	n := len(elems)
	h := make([][]float64, n)
	for i := range elems {
		h[i] = make([]float64, n)
		for j := range elems {
			if i == j {
				h[i][j] = math.Inf(1)
				continue
			}
			d := trees[elems[i].end].distance(elems[j].start)
			if !math.IsInf(d, 1) && elems[j].edge {
				d += elems[j].weight
			}
			h[i][j] = d
		}
	}

	tour := []int{0, 1}
	covered := make([]bool, n)
	covered[0], covered[1] = true, true
	for {
		bestGain, bestElem, bestPos := 0.0, -1, -1
		for z := 2; z < n; z++ {
			if covered[z] {
				continue
			}
			for i := 0; i+1 < len(tour); i++ {
				u, v := tour[i], tour[i+1]
				if math.IsInf(h[u][z], 1) || math.IsInf(h[z][v], 1) || math.IsInf(h[u][v], 1) {
					continue
				}
				extra := h[u][z] + h[z][v] - h[u][v]
				if extra > maxDetour {
					continue
				}
				gain := zeroDetourGain
				if extra > 0 {
					gain = 1 / extra
				}
				if gain > bestGain {
					bestGain, bestElem, bestPos = gain, z, i+1
				}
			}
		}
		if bestElem < 0 {
			break
		}
		tour = append(tour[:bestPos], append([]int{bestElem}, tour[bestPos:]...)...)
		covered[bestElem] = true
	}

	var res Result
	for z := 2; z < n; z++ {
		if covered[z] {
			continue
		}
		if elems[z].edge {
			res.UncoveredEdges++
		} else {
			res.UncoveredNodes++
		}
	}

	var path pangraph.Walk
	for i := 0; i+1 < len(tour); i++ {
		from, to := elems[tour[i]], elems[tour[i+1]]
		sub, ok := trees[from.end].pathTo(to.start)
		if !ok {
			return res, ErrNoPath
		}
		if i > 0 {
			sub = sub[1:]
		}
		path = append(path, sub...)
		if to.edge && path[len(path)-1] != to.end {
			path = append(path, to.end)
		}
	}
	res.Path = path
	return res, nil
}
