// Package conflict provides an advisory second view over the similarity
// matrix: tables claimed by multiple chains above threshold. The optimal
// assignment remains authoritative; conflicts feed audit reports and, when
// an oracle is available, a tie-break opinion.
package conflict

import (
	"sort"

	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
)

// #region types
// Claimant is one chain claiming a table above the conflict threshold.
type Claimant struct {
	ChainID    string
	Similarity float64
}

// Conflict records every claimant of a multiply-claimed table.
type Conflict struct {
	TableID       string
	Claimants     []Claimant
	MaxSimilarity float64
}

// Resolution is the advisory winner for a conflicted table.
type Resolution struct {
	TableID      string
	WinningChain string
	Confidence   float64
	Rationale    string
}

// #endregion types

// #region resolver
// Resolver detects and advisorily resolves multi-claimant tables.
type Resolver struct {
	threshold float64
}

// NewResolver creates a resolver with the given conflict threshold.
func NewResolver(threshold float64) *Resolver {
	return &Resolver{threshold: threshold}
}

// Detect scans the matrix column-wise and returns one Conflict per table
// claimed by two or more chains at or above the threshold.
func (r *Resolver) Detect(m *similarity.Matrix) []Conflict {
	var conflicts []Conflict
	for j, tableID := range m.TableIDs {
		var claimants []Claimant
		maxSim := 0.0
		for i, chainID := range m.ChainIDs {
			sim := m.At(i, j)
			if sim >= r.threshold {
				claimants = append(claimants, Claimant{ChainID: chainID, Similarity: sim})
				if sim > maxSim {
					maxSim = sim
				}
			}
		}
		if len(claimants) > 1 {
			conflicts = append(conflicts, Conflict{
				TableID:       tableID,
				Claimants:     claimants,
				MaxSimilarity: maxSim,
			})
		}
	}
	return conflicts
}

// Resolve picks the highest-similarity claimant for each conflict. The
// result is informational; it never overrides the assignment.
func (r *Resolver) Resolve(conflicts []Conflict) []Resolution {
	resolutions := make([]Resolution, 0, len(conflicts))
	for _, c := range conflicts {
		winner := c.Claimants[0]
		for _, cl := range c.Claimants[1:] {
			if cl.Similarity > winner.Similarity {
				winner = cl
			}
		}
		resolutions = append(resolutions, Resolution{
			TableID:      c.TableID,
			WinningChain: winner.ChainID,
			Confidence:   winner.Similarity,
			Rationale:    "highest similarity score",
		})
	}
	sort.Slice(resolutions, func(i, k int) bool { return resolutions[i].TableID < resolutions[k].TableID })
	return resolutions
}

// #endregion resolver
