// Package randwalk generates random acyclic source to target walks over a
// [pangraph.Graph].
//
// Both walkers restart from the source whenever an attempt reaches a dead
// end or exceeds its step ceiling. Reachability of the target is checked
// once up front, so an unreachable target fails immediately instead of
// retrying forever. Total attempts are otherwise unbounded; cancel ctx to
// stop a walker that keeps failing.
package randwalk

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

var (
	// ErrNodeNotFound is returned when the source or target is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPath is returned when the target is not reachable from the source.
	ErrNoPath = errors.New("no path between source and target")
)

// NewRand returns a PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Acyclic returns a random walk from s to t that never revisits a node.
// Each step picks uniformly among unvisited successors. maxSteps bounds the
// length of one attempt; zero or negative means no bound.
func Acyclic(ctx context.Context, g *pangraph.Graph, s, t pangraph.Node, maxSteps int, rng *rand.Rand) (pangraph.Walk, error) {
	if err := check(g, s, t); err != nil {
		return nil, err
	}
	if s == t {
		return pangraph.Walk{s}, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if path, ok := attempt(s, t, maxSteps, func(cur pangraph.Node, visited map[pangraph.Node]bool) (pangraph.Node, bool) {
			var cand []pangraph.Node
			for _, v := range g.Successors(cur) {
				if !visited[v] {
					cand = append(cand, v)
				}
			}
			if len(cand) == 0 {
				return pangraph.Node{}, false
			}
			return cand[rng.IntN(len(cand))], true
		}); ok {
			return path, nil
		}
	}
}

// Weighted returns a random walk from s to t that never revisits a node.
// Candidates are the unvisited successors that can still reach t; one is
// drawn with probability proportional to its edge weight. Edges missing from
// weights weigh zero, and a candidate set of total weight zero is sampled
// uniformly instead of always taking the first candidate.
func Weighted(ctx context.Context, g *pangraph.Graph, s, t pangraph.Node, weights Weights, maxSteps int, rng *rand.Rand) (pangraph.Walk, error) {
	if err := check(g, s, t); err != nil {
		return nil, err
	}
	if s == t {
		return pangraph.Walk{s}, nil
	}
	canReach := g.Ancestors(t)
	succ := make(map[pangraph.Node][]weighted)
	for _, e := range g.Edges() {
		if canReach[e.To] {
			succ[e.From] = append(succ[e.From], weighted{e.To, weights[Arc{e.From, e.To}]})
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if path, ok := attempt(s, t, maxSteps, func(cur pangraph.Node, visited map[pangraph.Node]bool) (pangraph.Node, bool) {
			var cand []weighted
			var total float64
			for _, c := range succ[cur] {
				if !visited[c.node] {
					cand = append(cand, c)
					total += c.weight
				}
			}
			if len(cand) == 0 {
				return pangraph.Node{}, false
			}
			return roulette(cand, total, rng), true
		}); ok {
			return path, nil
		}
	}
}

type weighted struct {
	node   pangraph.Node
	weight float64
}

// roulette draws from cand by cumulative weight.
func roulette(cand []weighted, total float64, rng *rand.Rand) pangraph.Node {
	if total <= 0 {
		return cand[rng.IntN(len(cand))].node
	}
	r := rng.Float64() * total
	var cum float64
	for _, c := range cand {
		cum += c.weight
		if r <= cum {
			return c.node
		}
	}
	return cand[len(cand)-1].node
}

// attempt runs one walk from s. next picks the following node or reports a
// dead end.
func attempt(s, t pangraph.Node, maxSteps int, next func(pangraph.Node, map[pangraph.Node]bool) (pangraph.Node, bool)) (pangraph.Walk, bool) {
	cur := s
	path := pangraph.Walk{s}
	visited := map[pangraph.Node]bool{s: true}
	for steps := 0; cur != t; steps++ {
		if maxSteps > 0 && steps >= maxSteps {
			return nil, false
		}
		v, ok := next(cur, visited)
		if !ok {
			return nil, false
		}
		path = append(path, v)
		visited[v] = true
		cur = v
	}
	return path, true
}

func check(g *pangraph.Graph, s, t pangraph.Node) error {
	if !g.HasNode(s) {
		return fmt.Errorf("source %s: %w", s, ErrNodeNotFound)
	}
	if !g.HasNode(t) {
		return fmt.Errorf("target %s: %w", t, ErrNodeNotFound)
	}
	if !g.HasPath(s, t) {
		return fmt.Errorf("%s -> %s: %w", s, t, ErrNoPath)
	}
	return nil
}
