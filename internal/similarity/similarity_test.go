package similarity

import (
	"math"
	"testing"
)

// unit vector at angle theta, so cosine against (1,0) is cos(theta).
func vec(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCosine_KnownValues(t *testing.T) {
	a := []float32{1, 0}
	cases := []struct {
		b    []float32
		want float64
	}{
		{[]float32{1, 0}, 1},
		{[]float32{0, 1}, 0},
		{[]float32{-1, 0}, -1},
		{vec(0.5), 0.5},
	}
	for _, c := range cases {
		if got := Cosine(a, c.b); !almost(got, c.want) {
			t.Errorf("Cosine(%v, %v) = %v, want %v", a, c.b, got, c.want)
		}
	}
}

func TestCosine_Degenerate(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero norm: got %v, want 0", got)
	}
	if got := Cosine(nil, nil); got != 0 {
		t.Errorf("nil vectors: got %v, want 0", got)
	}
}

// Rescaled maps [-1,1] to [0,1]: opposite vectors score 0, identical 1,
// orthogonal 0.5.
func TestRescaled_Range(t *testing.T) {
	a := []float32{1, 0}
	if got := Rescaled(a, []float32{-1, 0}); !almost(got, 0) {
		t.Errorf("opposite: got %v, want 0", got)
	}
	if got := Rescaled(a, a); !almost(got, 1) {
		t.Errorf("identical: got %v, want 1", got)
	}
	if got := Rescaled(a, []float32{0, 1}); !almost(got, 0.5) {
		t.Errorf("orthogonal: got %v, want 0.5", got)
	}
	if got := Rescaled([]float32{0, 0}, a); got != 0 {
		t.Errorf("zero norm: got %v, want 0", got)
	}
}

func TestBuild_SortedAndComplete(t *testing.T) {
	chains := map[string][]float32{
		"chain_b": {1, 0},
		"chain_a": {0, 1},
	}
	tables := map[string][]float32{
		"t2": {1, 0},
		"t1": {0, 1},
	}
	m := Build(chains, tables)

	if m.ChainIDs[0] != "chain_a" || m.ChainIDs[1] != "chain_b" {
		t.Errorf("chain ids not sorted: %v", m.ChainIDs)
	}
	if m.TableIDs[0] != "t1" || m.TableIDs[1] != "t2" {
		t.Errorf("table ids not sorted: %v", m.TableIDs)
	}

	// chain_a == t1, chain_b == t2, cross pairs orthogonal.
	if !almost(m.At(0, 0), 1) || !almost(m.At(1, 1), 1) {
		t.Errorf("identical pairs should score 1: %v", m.Vals)
	}
	if !almost(m.At(0, 1), 0.5) || !almost(m.At(1, 0), 0.5) {
		t.Errorf("orthogonal pairs should score 0.5: %v", m.Vals)
	}
}

func TestBuild_Empty(t *testing.T) {
	m := Build(nil, map[string][]float32{"t1": {1, 0}})
	if len(m.ChainIDs) != 0 || len(m.TableIDs) != 1 {
		t.Errorf("unexpected shape: %v x %v", m.ChainIDs, m.TableIDs)
	}
}
