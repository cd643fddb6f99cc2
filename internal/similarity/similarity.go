package similarity

import (
	"math"
	"sort"
)

// #region matrix
// Matrix is an ephemeral chain×table similarity matrix in [0,1], built once
// per year and consumed by the solver, conflict resolver, and split/merge
// detector.
type Matrix struct {
	ChainIDs []string
	TableIDs []string
	Vals     [][]float64 // Vals[i][j]: chain i vs table j
}

// At returns the similarity between chain row i and table column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Vals[i][j]
}

// #endregion matrix

// #region build
// Build computes the dense similarity matrix from chain-representative
// embeddings and the current year's table embeddings. IDs are sorted so
// runs are deterministic. A missing or zero-norm embedding scores 0.
func Build(chainEmbeddings, tableEmbeddings map[string][]float32) *Matrix {
	chainIDs := sortedKeys(chainEmbeddings)
	tableIDs := sortedKeys(tableEmbeddings)

	vals := make([][]float64, len(chainIDs))
	for i, cid := range chainIDs {
		vals[i] = make([]float64, len(tableIDs))
		for j, tid := range tableIDs {
			vals[i][j] = Rescaled(chainEmbeddings[cid], tableEmbeddings[tid])
		}
	}

	return &Matrix{ChainIDs: chainIDs, TableIDs: tableIDs, Vals: vals}
}

func sortedKeys(m map[string][]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion build

// #region cosine

// Cosine computes the cosine similarity of two vectors in [-1,1].
// Mismatched lengths or a zero-norm vector yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rescaled maps cosine similarity linearly from [-1,1] to [0,1].
// Degenerate inputs score 0, never a division fault.
func Rescaled(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var normA, normB float64
	for i := range a {
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return (Cosine(a, b) + 1) / 2
}

// #endregion cosine
