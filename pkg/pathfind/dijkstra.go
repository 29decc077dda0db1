package pathfind

import (
	"container/heap"
	"math"
	"slices"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// shortestPaths is a single-source shortest path tree.
type shortestPaths struct {
	source pangraph.Node
	dist   map[pangraph.Node]float64
	prev   map[pangraph.Node]pangraph.Node
}

// distance returns the shortest distance to v, +Inf when unreachable.
func (sp *shortestPaths) distance(v pangraph.Node) float64 {
	if d, ok := sp.dist[v]; ok {
		return d
	}
	return math.Inf(1)
}

// pathTo returns the node sequence source..v.
func (sp *shortestPaths) pathTo(v pangraph.Node) (pangraph.Walk, bool) {
	if _, ok := sp.dist[v]; !ok {
		return nil, false
	}
	path := pangraph.Walk{v}
	for v != sp.source {
		v = sp.prev[v]
		path = append(path, v)
	}
	slices.Reverse(path)
	return path, true
}

// dijkstra computes shortest distances from src over edge weights.
// Weights must be non-negative. Ties are broken by discovery order, so the
// result is deterministic for a given graph.
func dijkstra(g *pangraph.Graph, src pangraph.Node) *shortestPaths {
	sp := &shortestPaths{
		source: src,
		dist:   make(map[pangraph.Node]float64),
		prev:   make(map[pangraph.Node]pangraph.Node),
	}
	if !g.HasNode(src) {
		return sp
	}
	sp.dist[src] = 0
	done := make(map[pangraph.Node]bool)
	pq := &nodePQ{}
	seq := 0
	heap.Push(pq, &nodeItem{node: src, dist: 0, seq: seq})
	for pq.Len() > 0 {
		it := heap.Pop(pq).(*nodeItem)
		u := it.node
		if done[u] {
			continue
		}
		done[u] = true
		for _, v := range g.Successors(u) {
			if done[v] {
				continue
			}
			attr, _ := g.EdgeAttr(u, v)
			nd := it.dist + attr.Weight
			if old, ok := sp.dist[v]; !ok || nd < old {
				sp.dist[v] = nd
				sp.prev[v] = u
				seq++
				heap.Push(pq, &nodeItem{node: v, dist: nd, seq: seq})
			}
		}
	}
	return sp
}

// nodeItem is a priority queue entry. Stale entries are skipped on pop
// instead of being updated in place.
type nodeItem struct {
	node pangraph.Node
	dist float64
	seq  int
}

type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }
func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].seq < pq[j].seq
}
func (pq nodePQ) Swap(i, j int)  { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x any)    { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return it
}
