// Package lifecycle drives chain state transitions at each year boundary:
// applying validated matches, moving unmatched chains through dormancy and
// termination, reactivating dormant chains against leftover tables, and
// spawning singleton chains for whatever remains.
package lifecycle

import (
	"context"
	"fmt"
	"log"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
)

// #region types

// GapReport summarizes one year's dormancy and termination transitions.
type GapReport struct {
	NewDormant []string
	Ended      []string
}

// Reactivation records one dormant chain rejoined to the timeline.
type Reactivation struct {
	ChainID         string
	TableID         string
	Similarity      float64
	OracleValidated bool
}

// #endregion types

// #region manager
// Manager applies year-boundary transitions to a registry. One manager per
// chapter worker; not safe for concurrent use.
type Manager struct {
	cfg    config.MatchingConfig
	engine *oracle.Engine
}

// NewManager creates a lifecycle manager. The validator backs reactivation
// checks in the band between the oracle floor and the reactivation
// threshold; nil falls back to the deterministic mock.
func NewManager(cfg config.MatchingConfig, validator oracle.Validator) *Manager {
	return &Manager{
		cfg:    cfg,
		engine: oracle.NewEngine(validator, cfg.ReactivationThreshold, cfg.OracleFloor),
	}
}

// #endregion manager

// #region apply
// ApplyMatches appends each validated match to its chain and marks the
// chain active. Dormant chains picked up by the assignment clear their
// dormancy marker.
func (m *Manager) ApplyMatches(reg *registry.Registry, tables map[string]registry.Table, year int, matches []registry.Match) error {
	for _, match := range matches {
		c := reg.Get(match.ChainID)
		if c == nil {
			return fmt.Errorf("apply match: unknown chain %s", match.ChainID)
		}
		t, ok := tables[match.TableID]
		if !ok {
			return fmt.Errorf("apply match: unknown table %s", match.TableID)
		}
		if err := c.Append(t, year, match.Similarity, match.OracleValidated); err != nil {
			return fmt.Errorf("apply match: %w", err)
		}
		c.Status = registry.StatusActive
		c.DormantSince = 0
	}
	return nil
}

// #endregion apply

// #region gaps
// CheckGaps transitions every active or dormant chain that missed the
// current year. Within the gap budget the chain goes (or stays) dormant
// and the missed year is recorded; past the budget it is ended. Ended is
// terminal.
func (m *Manager) CheckGaps(reg *registry.Registry, year int, matched map[string]bool) GapReport {
	var report GapReport
	for _, id := range reg.IDs() {
		c := reg.Get(id)
		if matched[id] {
			continue
		}
		if c.Status != registry.StatusActive && c.Status != registry.StatusDormant {
			continue
		}
		gap := year - c.LastYear()
		if gap <= 0 {
			continue
		}
		if gap > m.cfg.MaxGapYears {
			c.Status = registry.StatusEnded
			report.Ended = append(report.Ended, id)
			log.Printf("[GAP] chain %s ended (last year %d, gap %d > %d)", id, c.LastYear(), gap, m.cfg.MaxGapYears)
			continue
		}
		if c.Status == registry.StatusActive {
			c.Status = registry.StatusDormant
			// DormantSince marks the last year the chain was seen, not the
			// year the gap was noticed: termination arithmetic (gap = year -
			// last seen) stays consistent however many years are skipped in
			// the input.
			c.DormantSince = c.LastYear()
			report.NewDormant = append(report.NewDormant, id)
		}
		c.Gaps = append(c.Gaps, year)
	}
	return report
}

// #endregion gaps

// #region reactivation
// Reactivate tries to rejoin dormant chains to the current year's leftover
// tables. Each dormant chain scans the pool in order and takes the first
// table that clears the bar: similarity at or above the reactivation
// threshold rejoins outright; similarity at or above the oracle floor
// rejoins only on oracle confirmation. A claimed table leaves the pool.
func (m *Manager) Reactivate(ctx context.Context, reg *registry.Registry, year int, pool []registry.Table, chainEmbeddings, tableEmbeddings map[string][]float32) ([]Reactivation, []registry.Table) {
	var reactivations []Reactivation
	claimed := make(map[string]bool)

	for _, id := range reg.IDs() {
		c := reg.Get(id)
		if c.Status != registry.StatusDormant {
			continue
		}
		headEmb, ok := chainEmbeddings[c.LastTable()]
		if !ok {
			continue
		}
		for _, t := range pool {
			if claimed[t.ID] {
				continue
			}
			emb, ok := tableEmbeddings[t.ID]
			if !ok {
				continue
			}
			sim := similarity.Rescaled(headEmb, emb)
			action, _, tier := m.engine.Judge(ctx, c.Headers, t.Header, sim)
			if action != oracle.ActionConfirm {
				continue
			}
			oracleValidated := tier == oracle.TierMedium
			if err := c.Append(t, year, sim, oracleValidated); err != nil {
				log.Printf("[GAP] reactivation of %s failed: %v", id, err)
				break
			}
			// A chain made dormant earlier this same year recorded the year
			// as a gap; it is covered now.
			if n := len(c.Gaps); n > 0 && c.Gaps[n-1] == year {
				c.Gaps = c.Gaps[:n-1]
			}
			c.Status = registry.StatusActive
			c.DormantSince = 0
			claimed[t.ID] = true
			reactivations = append(reactivations, Reactivation{
				ChainID:         id,
				TableID:         t.ID,
				Similarity:      sim,
				OracleValidated: oracleValidated,
			})
			log.Printf("[GAP] chain %s reactivated with %s (sim=%.3f, oracle=%t)", id, t.ID, sim, oracleValidated)
			break
		}
	}

	remaining := make([]registry.Table, 0, len(pool)-len(claimed))
	for _, t := range pool {
		if !claimed[t.ID] {
			remaining = append(remaining, t)
		}
	}
	return reactivations, remaining
}

// #endregion reactivation

// #region spawn
// SpawnNew creates a singleton active chain for each leftover table and
// returns the new chain IDs.
func (m *Manager) SpawnNew(reg *registry.Registry, tables []registry.Table, year int) []string {
	ids := make([]string, 0, len(tables))
	for _, t := range tables {
		c := reg.Spawn(t, year)
		ids = append(ids, c.ID)
	}
	return ids
}

// #endregion spawn
