package pangraph

import (
	"bytes"
	"encoding/gob"
)

type snapshot struct {
	Nodes []Node
	Ranks []int
	Edges []Edge
}

// GobEncode serializes the graph preserving node and edge order.
func (g *Graph) GobEncode() ([]byte, error) {
	s := snapshot{Nodes: g.order, Ranks: make([]int, len(g.order)), Edges: g.Edges()}
	for i, n := range g.order {
		s.Ranks[i] = g.ranks[n]
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a graph written by GobEncode.
func (g *Graph) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	*g = *New()
	for i, n := range s.Nodes {
		g.AddNode(n, s.Ranks[i])
	}
	for _, e := range s.Edges {
		if err := g.AddEdge(e.From, e.To, e.EdgeAttr); err != nil {
			return err
		}
	}
	return nil
}
