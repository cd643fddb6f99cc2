// Package splitmerge flags apparent 1:N, N:1, and N:N reorganizations
// between chains and the current year's tables. Outputs are reporting-only;
// the registry is never mutated from here.
package splitmerge

import (
	"sort"

	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
)

// #region types
// Target is a table scoring above the split threshold for some chain.
type Target struct {
	TableID    string
	Similarity float64
}

// Source is a chain scoring above the merge threshold for some table.
type Source struct {
	ChainID    string
	Similarity float64
}

// Split is one chain with two or more high-similarity tables: a series
// apparently fragmented into several new tables.
type Split struct {
	ChainID string
	Targets []Target
}

// Merge is one table with two or more high-similarity chains: several
// series apparently converged.
type Merge struct {
	TableID string
	Sources []Source
}

// Complex is an N:N reorganization: a chain that participates in both a
// split and a merge whose table sets intersect.
type Complex struct {
	Chains     []string
	Tables     []string
	Confidence float64
}

// #endregion types

// #region detector
// Detector scans the similarity matrix for non-1:1 relationships.
type Detector struct {
	splitThreshold float64
	mergeThreshold float64
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(splitThreshold, mergeThreshold float64) *Detector {
	return &Detector{splitThreshold: splitThreshold, mergeThreshold: mergeThreshold}
}

// DetectSplits scans row-wise for chains with two or more tables at or
// above the split threshold.
func (d *Detector) DetectSplits(m *similarity.Matrix) []Split {
	var splits []Split
	for i, chainID := range m.ChainIDs {
		var targets []Target
		for j, tableID := range m.TableIDs {
			if sim := m.At(i, j); sim >= d.splitThreshold {
				targets = append(targets, Target{TableID: tableID, Similarity: sim})
			}
		}
		if len(targets) >= 2 {
			splits = append(splits, Split{ChainID: chainID, Targets: targets})
		}
	}
	return splits
}

// DetectMerges scans column-wise for tables with two or more chains at or
// above the merge threshold.
func (d *Detector) DetectMerges(m *similarity.Matrix) []Merge {
	var merges []Merge
	for j, tableID := range m.TableIDs {
		var sources []Source
		for i, chainID := range m.ChainIDs {
			if sim := m.At(i, j); sim >= d.mergeThreshold {
				sources = append(sources, Source{ChainID: chainID, Similarity: sim})
			}
		}
		if len(sources) >= 2 {
			merges = append(merges, Merge{TableID: tableID, Sources: sources})
		}
	}
	return merges
}

// DetectComplex flags N:N relationships: a split whose chain also appears
// among some merge's sources, with overlapping table sets.
func (d *Detector) DetectComplex(splits []Split, merges []Merge) []Complex {
	mergeChains := make(map[string]bool)
	for _, m := range merges {
		for _, s := range m.Sources {
			mergeChains[s.ChainID] = true
		}
	}

	var complexes []Complex
	for _, split := range splits {
		if !mergeChains[split.ChainID] {
			continue
		}
		for _, merge := range merges {
			if !sourcesContain(merge.Sources, split.ChainID) {
				continue
			}
			chains := map[string]bool{split.ChainID: true}
			for _, s := range merge.Sources {
				chains[s.ChainID] = true
			}
			tables := map[string]bool{merge.TableID: true}
			for _, t := range split.Targets {
				tables[t.TableID] = true
			}
			complexes = append(complexes, Complex{
				Chains:     keys(chains),
				Tables:     keys(tables),
				Confidence: 0.7,
			})
		}
	}
	return complexes
}

func sourcesContain(sources []Source, chainID string) bool {
	for _, s := range sources {
		if s.ChainID == chainID {
			return true
		}
	}
	return false
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// #endregion detector
