package randwalk

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

func graph(arcs ...[2]string) *pangraph.Graph {
	g := pangraph.New()
	for _, a := range arcs {
		for _, id := range a {
			g.AddNode(pangraph.Fwd(id), 0)
		}
		_ = g.AddEdge(pangraph.Fwd(a[0]), pangraph.Fwd(a[1]), pangraph.EdgeAttr{})
	}
	return g
}

func walk(ids ...string) pangraph.Walk {
	w := make(pangraph.Walk, len(ids))
	for i, id := range ids {
		w[i] = pangraph.Fwd(id)
	}
	return w
}

func bubble() *pangraph.Graph {
	return graph([2]string{"s1", "s2"}, [2]string{"s2", "s4"}, [2]string{"s1", "s3"}, [2]string{"s3", "s4"})
}

func TestAcyclic_SameEndpoints(t *testing.T) {
	got, err := Acyclic(context.Background(), bubble(), pangraph.Fwd("s2"), pangraph.Fwd("s2"), 10, NewRand(1))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, walk("s2")) {
		t.Errorf("Acyclic() = %v, want [s2+]", got)
	}
}

func TestAcyclic_Errors(t *testing.T) {
	g := bubble()
	tests := []struct {
		name   string
		s, t   pangraph.Node
		target error
	}{
		{"unreachable", pangraph.Fwd("s4"), pangraph.Fwd("s1"), ErrNoPath},
		{"sibling", pangraph.Fwd("s2"), pangraph.Fwd("s3"), ErrNoPath},
		{"missing source", pangraph.Fwd("s9"), pangraph.Fwd("s4"), ErrNodeNotFound},
		{"missing target", pangraph.Fwd("s1"), pangraph.Rev("s4"), ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 3 {
				if _, err := Acyclic(context.Background(), g, tt.s, tt.t, 0, NewRand(7)); !errors.Is(err, tt.target) {
					t.Fatalf("Acyclic() error = %v, want %v", err, tt.target)
				}
				if _, err := Weighted(context.Background(), g, tt.s, tt.t, nil, 0, NewRand(7)); !errors.Is(err, tt.target) {
					t.Fatalf("Weighted() error = %v, want %v", err, tt.target)
				}
			}
		})
	}
}

func TestAcyclic_VisitsBothBranches(t *testing.T) {
	g := bubble()
	rng := NewRand(42)
	seen := map[string]bool{}
	for range 64 {
		got, err := Acyclic(context.Background(), g, pangraph.Fwd("s1"), pangraph.Fwd("s4"), 0, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[0] != pangraph.Fwd("s1") || got[2] != pangraph.Fwd("s4") {
			t.Fatalf("Acyclic() = %v", got)
		}
		seen[got.String()] = true
	}
	if len(seen) != 2 {
		t.Errorf("walks seen = %v, want both branches", seen)
	}
}

func TestAcyclic_RestartsOnDeadEnd(t *testing.T) {
	g := graph([2]string{"s1", "s2"}, [2]string{"s1", "s3"}, [2]string{"s3", "s4"})
	rng := NewRand(3)
	for range 20 {
		got, err := Acyclic(context.Background(), g, pangraph.Fwd("s1"), pangraph.Fwd("s4"), 0, rng)
		if err != nil {
			t.Fatal(err)
		}
		if want := walk("s1", "s3", "s4"); !slices.Equal(got, want) {
			t.Fatalf("Acyclic() = %v, want %v", got, want)
		}
	}
}

func TestAcyclic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// One step is never enough to reach s4, so only cancellation ends the walk.
	_, err := Acyclic(ctx, bubble(), pangraph.Fwd("s1"), pangraph.Fwd("s4"), 1, NewRand(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acyclic() error = %v, want context.Canceled", err)
	}
}

func TestWeighted_FollowsWeights(t *testing.T) {
	g := bubble()
	w := Weights{
		{pangraph.Fwd("s1"), pangraph.Fwd("s2")}: 1,
		{pangraph.Fwd("s1"), pangraph.Fwd("s3")}: 0,
	}
	rng := NewRand(9)
	for range 20 {
		got, err := Weighted(context.Background(), g, pangraph.Fwd("s1"), pangraph.Fwd("s4"), w, 0, rng)
		if err != nil {
			t.Fatal(err)
		}
		if want := walk("s1", "s2", "s4"); !slices.Equal(got, want) {
			t.Fatalf("Weighted() = %v, want %v", got, want)
		}
	}
}

func TestWeighted_ZeroWeightsSampleUniformly(t *testing.T) {
	g := bubble()
	rng := NewRand(3)
	seen := map[pangraph.Node]bool{}
	for range 50 {
		got, err := Weighted(context.Background(), g, pangraph.Fwd("s1"), pangraph.Fwd("s4"), Weights{}, 0, rng)
		if err != nil {
			t.Fatal(err)
		}
		seen[got[1]] = true
	}
	if !seen[pangraph.Fwd("s2")] || !seen[pangraph.Fwd("s3")] {
		t.Errorf("Weighted() with zero weights visited %v, want both branches", seen)
	}
}

func TestWeighted_SkipsBranchesThatCannotReachTarget(t *testing.T) {
	g := graph([2]string{"s1", "s2"}, [2]string{"s1", "s3"}, [2]string{"s3", "s4"})
	w := RandomEdgeWeights(g, NewRand(5))
	w[Arc{pangraph.Fwd("s1"), pangraph.Fwd("s2")}] = 1000

	got, err := Weighted(context.Background(), g, pangraph.Fwd("s1"), pangraph.Fwd("s4"), w, 2, NewRand(5))
	if err != nil {
		t.Fatal(err)
	}
	if want := walk("s1", "s3", "s4"); !slices.Equal(got, want) {
		t.Errorf("Weighted() = %v, want %v", got, want)
	}
}

func TestRoulette(t *testing.T) {
	cand := []weighted{{pangraph.Fwd("a1"), 0}, {pangraph.Fwd("a2"), 0}}
	rng := NewRand(11)
	seen := map[pangraph.Node]bool{}
	for range 50 {
		seen[roulette(cand, 0, rng)] = true
	}
	if len(seen) != 2 {
		t.Errorf("zero total weight should sample uniformly, saw %v", seen)
	}
}

func TestWeights_SaveLoad(t *testing.T) {
	g := bubble()
	w := RandomEdgeWeights(g, NewRand(1))
	if len(w) != g.EdgeCount() {
		t.Fatalf("RandomEdgeWeights() has %d weights, want %d", len(w), g.EdgeCount())
	}
	for a, v := range w {
		if v < 0 || v >= 1 {
			t.Errorf("weight %s = %v, want [0,1)", a, v)
		}
	}

	path := filepath.Join(t.TempDir(), "weights.json")
	if err := SaveWeights(path, w); err != nil {
		t.Fatal(err)
	}
	got, err := LoadWeights(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(w) {
		t.Fatalf("LoadWeights() has %d weights, want %d", len(got), len(w))
	}
	for a, v := range w {
		if got[a] != v {
			t.Errorf("weight %s = %v, want %v", a, got[a], v)
		}
	}
}

func TestWeights_UnmarshalErrors(t *testing.T) {
	for _, in := range []string{`{"s1+s2+": 1}`, `{"s1|s2+": 1}`, `[1]`} {
		var w Weights
		if err := w.UnmarshalJSON([]byte(in)); err == nil {
			t.Errorf("UnmarshalJSON(%s) should fail", in)
		}
	}
}
