package randwalk

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	simpgio "github.com/matzehuels/simpg/pkg/io"
	"github.com/matzehuels/simpg/pkg/pangraph"
)

// Arc identifies a directed edge.
type Arc struct {
	From, To pangraph.Node
}

// String returns "from|to", the key used in weight files.
func (a Arc) String() string { return a.From.String() + "|" + a.To.String() }

// Weights maps edges to traversal weights for [Weighted].
type Weights map[Arc]float64

// RandomEdgeWeights draws a Uniform(0,1) weight for every edge of g.
func RandomEdgeWeights(g *pangraph.Graph, rng *rand.Rand) Weights {
	w := make(Weights, g.EdgeCount())
	for _, e := range g.Edges() {
		w[Arc{e.From, e.To}] = rng.Float64()
	}
	return w
}

// MarshalJSON encodes weights as an object keyed by "from|to".
func (w Weights) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(w))
	for a, v := range w {
		m[a.String()] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (w *Weights) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(Weights, len(m))
	for k, v := range m {
		from, to, ok := strings.Cut(k, "|")
		if !ok {
			return fmt.Errorf("weight key %q: missing separator", k)
		}
		a, err := pangraph.ParseNode(from)
		if err != nil {
			return fmt.Errorf("weight key %q: %w", k, err)
		}
		b, err := pangraph.ParseNode(to)
		if err != nil {
			return fmt.Errorf("weight key %q: %w", k, err)
		}
		out[Arc{a, b}] = v
	}
	*w = out
	return nil
}

// WriteWeights writes w as indented JSON.
func WriteWeights(wr io.Writer, w Weights) error {
	enc := json.NewEncoder(wr)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// SaveWeights writes w to path atomically.
func SaveWeights(path string, w Weights) error {
	f, err := simpgio.CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()
	if err := WriteWeights(f, w); err != nil {
		return err
	}
	return f.Commit()
}

// LoadWeights reads a weight file written by SaveWeights. Compressed files
// are accepted.
func LoadWeights(path string) (Weights, error) {
	r, err := simpgio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var w Weights
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode weights %s: %w", path, err)
	}
	return w, nil
}
