package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// #region chain-methods

// LastYear returns the most recent covered year, or 0 for an empty chain.
func (c *Chain) LastYear() int {
	if len(c.Years) == 0 {
		return 0
	}
	return c.Years[len(c.Years)-1]
}

// LastTable returns the most recently appended table ID, or "".
func (c *Chain) LastTable() string {
	if len(c.Tables) == 0 {
		return ""
	}
	return c.Tables[len(c.Tables)-1]
}

// Append extends the chain with a matched table. Rejects appends to ended
// chains and out-of-order years.
func (c *Chain) Append(t Table, year int, similarity float64, oracleValidated bool) error {
	if c.Status == StatusEnded {
		return fmt.Errorf("chain %s is ended", c.ID)
	}
	if year < c.LastYear() {
		return fmt.Errorf("chain %s: year %d precedes last year %d", c.ID, year, c.LastYear())
	}
	c.Tables = append(c.Tables, t.ID)
	c.Years = append(c.Years, year)
	c.Headers = append(c.Headers, t.Header)
	c.MaskRefs = append(c.MaskRefs, t.MaskRef)
	c.Similarities = append(c.Similarities, similarity)
	c.OracleValidated = append(c.OracleValidated, oracleValidated)
	return nil
}

// CheckInvariants verifies the parallel-slice lengths.
func (c *Chain) CheckInvariants() error {
	n := len(c.Tables)
	if len(c.Years) != n || len(c.Headers) != n || len(c.MaskRefs) != n {
		return fmt.Errorf("chain %s: parallel slices diverge (tables=%d years=%d headers=%d masks=%d)",
			c.ID, n, len(c.Years), len(c.Headers), len(c.MaskRefs))
	}
	if n > 0 && (len(c.Similarities) != n-1 || len(c.OracleValidated) != n-1) {
		return fmt.Errorf("chain %s: expected %d similarity entries, got %d/%d",
			c.ID, n-1, len(c.Similarities), len(c.OracleValidated))
	}
	for i := 1; i < n; i++ {
		if c.Years[i] < c.Years[i-1] {
			return fmt.Errorf("chain %s: years not non-decreasing at index %d", c.ID, i)
		}
	}
	return nil
}

// #endregion chain-methods

// #region registry
// Registry holds every chain for one chapter's processing session. One
// registry per chapter worker; not safe for concurrent use.
type Registry struct {
	chains map[string]*Chain
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[string]*Chain)}
}

// InitFromFirstYear seeds one singleton active chain per first-year table.
func (r *Registry) InitFromFirstYear(tables []Table) int {
	for _, t := range tables {
		r.Spawn(t, t.Year)
	}
	return len(r.chains)
}

// Spawn creates a new singleton active chain for an unmatched table.
func (r *Registry) Spawn(t Table, year int) *Chain {
	c := &Chain{
		ID:              "chain_" + t.ID,
		Tables:          []string{t.ID},
		Years:           []int{year},
		Headers:         []string{t.Header},
		MaskRefs:        []string{t.MaskRef},
		Status:          StatusActive,
		Gaps:            []int{},
		Similarities:    []float64{},
		OracleValidated: []bool{},
	}
	r.chains[c.ID] = c
	return c
}

// Get returns the chain with the given ID, or nil.
func (r *Registry) Get(id string) *Chain {
	return r.chains[id]
}

// Len returns the number of chains.
func (r *Registry) Len() int {
	return len(r.chains)
}

// IDs returns all chain IDs in sorted order for deterministic iteration.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveHeads maps each active chain to its most recent table ID. These
// tables supply the chain-representative embeddings for matching.
func (r *Registry) ActiveHeads() map[string]string {
	heads := make(map[string]string)
	for id, c := range r.chains {
		if c.Status == StatusActive && len(c.Tables) > 0 {
			heads[id] = c.LastTable()
		}
	}
	return heads
}

// CountByStatus returns how many chains are in each status.
func (r *Registry) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, c := range r.chains {
		counts[c.Status]++
	}
	return counts
}

// Chains returns the underlying chain set keyed by ID. Callers must not
// add or remove entries; mutation of individual chains goes through the
// lifecycle manager.
func (r *Registry) Chains() map[string]*Chain {
	return r.chains
}

// #endregion registry

// #region serialization

// Snapshot returns the chains as a map ready for JSON output, matching the
// chains_chapter_N.json format the consolidator consumes.
func (r *Registry) Snapshot() map[string]*Chain {
	out := make(map[string]*Chain, len(r.chains))
	for id, c := range r.chains {
		out[id] = c
	}
	return out
}

// SaveJSON writes the chain set to path as indented JSON.
func (r *Registry) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chains: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chains %s: %w", path, err)
	}
	return nil
}

// LoadChainsJSON reads a chain set from a chains_chapter_N.json file.
func LoadChainsJSON(path string) (map[string]*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains %s: %w", path, err)
	}
	var chains map[string]*Chain
	if err := json.Unmarshal(data, &chains); err != nil {
		return nil, fmt.Errorf("parse chains %s: %w", path, err)
	}
	return chains, nil
}

// #endregion serialization
