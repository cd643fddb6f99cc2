package assign

import (
	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
)

// #region types
// Candidate is a proposed 1:1 chain←table pairing at or above the base
// acceptance threshold, pending validation tiering.
type Candidate struct {
	ChainID    string
	TableID    string
	Similarity float64
}

// Result is the outcome of one optimal-assignment pass. At most one
// candidate per chain and per table, by construction.
type Result struct {
	Candidates      []Candidate
	UnmatchedChains []string
	UnmatchedTables []string
}

// #endregion types

// #region solver
// Solver wraps minimum-cost bipartite assignment over a similarity matrix.
type Solver struct {
	threshold float64
}

// NewSolver creates a solver with the given base acceptance threshold.
func NewSolver(threshold float64) *Solver {
	return &Solver{threshold: threshold}
}

// Solve converts the similarity matrix to costs (1 − sim) and finds the
// globally optimal assignment. Pairs below the acceptance threshold, and
// chains or tables the assignment leaves unpaired, are reported unmatched.
func (s *Solver) Solve(m *similarity.Matrix) Result {
	nChains := len(m.ChainIDs)
	nTables := len(m.TableIDs)

	result := Result{}
	if nChains == 0 || nTables == 0 {
		result.UnmatchedChains = append(result.UnmatchedChains, m.ChainIDs...)
		result.UnmatchedTables = append(result.UnmatchedTables, m.TableIDs...)
		return result
	}

	// The Hungarian core wants rows <= cols; transpose when chains outnumber
	// tables and map back afterwards.
	transposed := nChains > nTables
	cost := costMatrix(m, transposed)
	rowToCol := minCostAssignment(cost)

	chainToTable := make(map[int]int, len(rowToCol))
	for row, col := range rowToCol {
		if transposed {
			chainToTable[col] = row
		} else {
			chainToTable[row] = col
		}
	}

	matchedTables := make(map[int]bool, len(chainToTable))
	for i := 0; i < nChains; i++ {
		j, ok := chainToTable[i]
		if !ok {
			result.UnmatchedChains = append(result.UnmatchedChains, m.ChainIDs[i])
			continue
		}
		sim := m.At(i, j)
		if sim < s.threshold {
			result.UnmatchedChains = append(result.UnmatchedChains, m.ChainIDs[i])
			continue
		}
		matchedTables[j] = true
		result.Candidates = append(result.Candidates, Candidate{
			ChainID:    m.ChainIDs[i],
			TableID:    m.TableIDs[j],
			Similarity: sim,
		})
	}
	for j := 0; j < nTables; j++ {
		if !matchedTables[j] {
			result.UnmatchedTables = append(result.UnmatchedTables, m.TableIDs[j])
		}
	}
	return result
}

func costMatrix(m *similarity.Matrix, transposed bool) [][]float64 {
	if transposed {
		cost := make([][]float64, len(m.TableIDs))
		for j := range cost {
			cost[j] = make([]float64, len(m.ChainIDs))
			for i := range cost[j] {
				cost[j][i] = 1 - m.At(i, j)
			}
		}
		return cost
	}
	cost := make([][]float64, len(m.ChainIDs))
	for i := range cost {
		cost[i] = make([]float64, len(m.TableIDs))
		for j := range cost[i] {
			cost[i][j] = 1 - m.At(i, j)
		}
	}
	return cost
}

// #endregion solver
