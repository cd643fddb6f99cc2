// Package stats accumulates run counters and renders the end-of-run
// summary report.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// #region review
// ReviewItem is one candidate routed to manual review instead of being
// applied or discarded.
type ReviewItem struct {
	Chapter    int     `json:"chapter"`
	Year       int     `json:"year"`
	ChainID    string  `json:"chain_id"`
	TableID    string  `json:"table_id"`
	Similarity float64 `json:"similarity"`
	Rationale  string  `json:"rationale,omitempty"`
}

// #endregion review

// #region collector
// Collector gathers counters across chapter workers. Safe for concurrent
// use.
type Collector struct {
	mu sync.Mutex

	YearsProcessed      int `json:"years_processed"`
	Matches             int `json:"matches"`
	AutoAccepted        int `json:"auto_accepted"`
	OracleAccepted      int `json:"oracle_accepted"`
	Rejections          int `json:"rejections"`
	OracleCalls         int `json:"oracle_calls"`
	Conflicts           int `json:"conflicts"`
	Splits              int `json:"splits"`
	Merges              int `json:"merges"`
	Complex             int `json:"complex"`
	NewDormant          int `json:"new_dormant"`
	Reactivations       int `json:"reactivations"`
	Ended               int `json:"ended"`
	Spawned             int `json:"spawned"`
	ConsolidationMerges int `json:"consolidation_merges"`

	Review []ReviewItem `json:"review,omitempty"`
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add folds delta's counters into the collector.
func (c *Collector) Add(delta *Collector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.YearsProcessed += delta.YearsProcessed
	c.Matches += delta.Matches
	c.AutoAccepted += delta.AutoAccepted
	c.OracleAccepted += delta.OracleAccepted
	c.Rejections += delta.Rejections
	c.OracleCalls += delta.OracleCalls
	c.Conflicts += delta.Conflicts
	c.Splits += delta.Splits
	c.Merges += delta.Merges
	c.Complex += delta.Complex
	c.NewDormant += delta.NewDormant
	c.Reactivations += delta.Reactivations
	c.Ended += delta.Ended
	c.Spawned += delta.Spawned
	c.ConsolidationMerges += delta.ConsolidationMerges
	c.Review = append(c.Review, delta.Review...)
}

// AddReview queues one manual-review item.
func (c *Collector) AddReview(item ReviewItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Review = append(c.Review, item)
}

// #endregion collector

// #region report
// Report renders the summary in the log-friendly format printed at the end
// of a run.
func (c *Collector) Report() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString("=== run summary ===\n")
	fmt.Fprintf(&b, "years processed:       %d\n", c.YearsProcessed)
	fmt.Fprintf(&b, "matches applied:       %d (auto %d, oracle %d)\n", c.Matches, c.AutoAccepted, c.OracleAccepted)
	fmt.Fprintf(&b, "rejections:            %d\n", c.Rejections)
	fmt.Fprintf(&b, "oracle calls:          %d\n", c.OracleCalls)
	fmt.Fprintf(&b, "conflicts flagged:     %d\n", c.Conflicts)
	fmt.Fprintf(&b, "splits/merges/complex: %d/%d/%d\n", c.Splits, c.Merges, c.Complex)
	fmt.Fprintf(&b, "dormant/reactivated:   %d/%d\n", c.NewDormant, c.Reactivations)
	fmt.Fprintf(&b, "chains ended:          %d\n", c.Ended)
	fmt.Fprintf(&b, "chains spawned:        %d\n", c.Spawned)
	if c.ConsolidationMerges > 0 {
		fmt.Fprintf(&b, "consolidation merges:  %d\n", c.ConsolidationMerges)
	}
	if len(c.Review) > 0 {
		fmt.Fprintf(&b, "manual review queue (%d):\n", len(c.Review))
		items := make([]ReviewItem, len(c.Review))
		copy(items, c.Review)
		sort.Slice(items, func(i, j int) bool {
			if items[i].Chapter != items[j].Chapter {
				return items[i].Chapter < items[j].Chapter
			}
			if items[i].Year != items[j].Year {
				return items[i].Year < items[j].Year
			}
			return items[i].TableID < items[j].TableID
		})
		for _, it := range items {
			fmt.Fprintf(&b, "  ch%d %d: %s <- %s (sim=%.3f) %s\n",
				it.Chapter, it.Year, it.ChainID, it.TableID, it.Similarity, it.Rationale)
		}
	}
	return b.String()
}

// WriteJSON saves the collector as an indented JSON report for downstream
// tooling.
func (c *Collector) WriteJSON(path string) error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// #endregion report
