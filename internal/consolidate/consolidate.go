// Package consolidate merges complementary chains across chapters: pairs
// whose year sets interleave so that the union covers strictly more than
// either side. Merges require positive semantic confirmation from the
// equivalence oracle; without one the pass is a no-op.
package consolidate

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
	"github.com/eladbr/table-chains/go-matcher/internal/store"
)

// #region types

// Entry is one chain in the consolidation working set with the chapters
// it draws from.
type Entry struct {
	Chain    *registry.Chain
	Chapters []int
}

// MergeRecord documents one performed merge.
type MergeRecord struct {
	MergedID    string `json:"merged_id"`
	SourceA     string `json:"source_a"`
	SourceB     string `json:"source_b"`
	Improvement int    `json:"improvement"`
	YearsAfter  int    `json:"years_after"`
}

// IterationReport summarizes one consolidation iteration.
type IterationReport struct {
	Iteration   int           `json:"iteration"`
	Candidates  int           `json:"candidates"`
	Screened    int           `json:"screened"`
	OracleCalls int           `json:"oracle_calls"`
	Merges      []MergeRecord `json:"merges"`
}

// Report is the full consolidation outcome.
type Report struct {
	Iterations   []IterationReport `json:"iterations"`
	TotalMerges  int               `json:"total_merges"`
	ChainsBefore int               `json:"chains_before"`
	ChainsAfter  int               `json:"chains_after"`

	// CoverageMaintained is false if any year covered before the pass lost
	// all coverage, which would mean a merge dropped data.
	CoverageMaintained bool `json:"coverage_maintained"`
}

// pair is an internal merge candidate, ordered A < B by chain ID.
type pair struct {
	a, b         string
	improvement  int
	completeness float64
}

// #endregion types

// #region consolidator
// Consolidator runs the iterative cross-chapter merge pass.
type Consolidator struct {
	cfg       config.ConsolidateConfig
	embedder  *semantic.Embedder
	validator oracle.Validator
	archive   *store.Store

	// equivalence verdict cache keyed by ordered representative headers
	// rather than chain ids: merged chains get fresh ids every iteration,
	// but their representatives persist, so header keys keep earlier
	// verdicts usable across iterations and runs. Read-through to the
	// archive when one is attached.
	verdicts map[[2]string]bool
}

// New assembles a consolidator. validator may be nil (mock: no merges);
// archive may be nil to keep the verdict cache in memory only.
func New(cfg config.ConsolidateConfig, embedder *semantic.Embedder, validator oracle.Validator, archive *store.Store) *Consolidator {
	if !cfg.OracleEnabled {
		validator = nil
	}
	if validator == nil {
		validator = oracle.Mock{}
	}
	return &Consolidator{
		cfg:       cfg,
		embedder:  embedder,
		validator: validator,
		archive:   archive,
		verdicts:  make(map[[2]string]bool),
	}
}

// #endregion consolidator

// #region run
// Run consolidates the chain sets of several chapters. It returns the
// final working set (merged chains plus every chain left untouched) and a
// per-iteration report. Iterations stop at the configured cap or on the
// first iteration with zero merges.
func (c *Consolidator) Run(ctx context.Context, byChapter map[int]map[string]*registry.Chain) (map[string]Entry, *Report, error) {
	working := make(map[string]Entry)
	for chapter, chains := range byChapter {
		for id, chain := range chains {
			if _, dup := working[id]; dup {
				return nil, nil, fmt.Errorf("duplicate chain id %s across chapters", id)
			}
			working[id] = Entry{Chain: chain, Chapters: []int{chapter}}
		}
	}

	report := &Report{ChainsBefore: len(working)}
	coveredBefore := coveredYears(working)
	for iter := 1; iter <= c.cfg.MaxIterations; iter++ {
		ir, err := c.iterate(ctx, iter, working)
		if err != nil {
			return nil, nil, err
		}
		report.Iterations = append(report.Iterations, *ir)
		report.TotalMerges += len(ir.Merges)
		log.Printf("[CONS] iteration %d: %d candidates, %d screened out, %d merges",
			iter, ir.Candidates, ir.Screened, len(ir.Merges))
		if len(ir.Merges) == 0 {
			break
		}
	}
	report.ChainsAfter = len(working)
	report.CoverageMaintained = containsAll(coveredYears(working), coveredBefore)
	return working, report, nil
}

// coveredYears is the set of years carried by at least one chain.
func coveredYears(working map[string]Entry) map[int]bool {
	set := make(map[int]bool)
	for _, e := range working {
		for _, y := range e.Chain.Years {
			set[y] = true
		}
	}
	return set
}

func containsAll(have, want map[int]bool) bool {
	for y := range want {
		if !have[y] {
			return false
		}
	}
	return true
}

// iterate runs one pass: rank candidates, confirm, merge. Each chain
// participates in at most one merge per iteration.
func (c *Consolidator) iterate(ctx context.Context, iter int, working map[string]Entry) (*IterationReport, error) {
	ir := &IterationReport{Iteration: iter}
	candidates := rankCandidates(working)
	ir.Candidates = len(candidates)

	consumed := make(map[string]bool)
	for _, p := range candidates {
		if consumed[p.a] || consumed[p.b] {
			continue
		}
		entryA, entryB := working[p.a], working[p.b]

		ok, screened, called, err := c.confirmEquivalence(ctx, entryA.Chain, entryB.Chain)
		if err != nil {
			return nil, err
		}
		if screened {
			ir.Screened++
		}
		if called {
			ir.OracleCalls++
		}
		if !ok {
			continue
		}

		merged := c.mergeChains(entryA, entryB)
		delete(working, p.a)
		delete(working, p.b)
		working[merged.Chain.ID] = merged
		consumed[p.a] = true
		consumed[p.b] = true
		ir.Merges = append(ir.Merges, MergeRecord{
			MergedID:    merged.Chain.ID,
			SourceA:     p.a,
			SourceB:     p.b,
			Improvement: p.improvement,
			YearsAfter:  len(merged.Chain.Years),
		})
		log.Printf("[CONS] merged %s + %s -> %s (+%d years)", p.a, p.b, merged.Chain.ID, p.improvement)
	}
	return ir, nil
}

// #endregion run

// #region candidates
// rankCandidates lists every complementary pair in the working set, best
// first: larger coverage improvement wins, then higher completeness of
// the merged span.
func rankCandidates(working map[string]Entry) []pair {
	ids := make([]string, 0, len(working))
	for id := range working {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var pairs []pair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := working[ids[i]].Chain, working[ids[j]].Chain
			union := yearUnion(a.Years, b.Years)
			improvement := len(union) - max(len(yearSet(a.Years)), len(yearSet(b.Years)))
			if improvement <= 0 {
				continue
			}
			span := union[len(union)-1] - union[0] + 1
			pairs = append(pairs, pair{
				a:            ids[i],
				b:            ids[j],
				improvement:  improvement,
				completeness: float64(len(union)) / float64(span),
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].improvement != pairs[j].improvement {
			return pairs[i].improvement > pairs[j].improvement
		}
		return pairs[i].completeness > pairs[j].completeness
	})
	return pairs
}

func yearSet(years []int) map[int]bool {
	set := make(map[int]bool, len(years))
	for _, y := range years {
		set[y] = true
	}
	return set
}

func yearUnion(a, b []int) []int {
	set := yearSet(a)
	for _, y := range b {
		set[y] = true
	}
	union := make([]int, 0, len(set))
	for y := range set {
		union = append(union, y)
	}
	sort.Ints(union)
	return union
}

// #endregion candidates

// #region equivalence
// confirmEquivalence decides whether two chains describe the same dataset.
// Pairs whose representative headers fall below the cosine pre-screen are
// discarded without an oracle call; otherwise the oracle verdict is
// cached symmetrically (in the archive too, when attached). An oracle
// failure skips the pair rather than merging unconfirmed.
func (c *Consolidator) confirmEquivalence(ctx context.Context, a, b *registry.Chain) (ok, screened, called bool, err error) {
	repA, repB := representative(a), representative(b)
	key := verdictKey(repA, repB)

	if v, cached := c.verdicts[key]; cached {
		return v, false, false, nil
	}
	if c.archive != nil {
		if v, found, aerr := c.archive.GetEquivalence(repA, repB); aerr == nil && found {
			c.verdicts[key] = v
			return v, false, false, nil
		}
	}

	embA, err := c.embedder.Embed(ctx, repA)
	if err != nil {
		return false, false, false, fmt.Errorf("embed representative of %s: %w", a.ID, err)
	}
	embB, err := c.embedder.Embed(ctx, repB)
	if err != nil {
		return false, false, false, fmt.Errorf("embed representative of %s: %w", b.ID, err)
	}
	if similarity.Cosine(embA, embB) < c.cfg.PreScreenThreshold {
		c.verdicts[key] = false
		return false, true, false, nil
	}

	equivalent, oerr := c.validator.ValidateEquivalence(ctx, repA, repB)
	if oerr != nil {
		log.Printf("[CONS] equivalence check %s/%s failed, skipping pair: %v", a.ID, b.ID, oerr)
		return false, false, true, nil
	}
	c.verdicts[key] = equivalent
	if c.archive != nil {
		if aerr := c.archive.PutEquivalence(repA, repB, equivalent); aerr != nil {
			log.Printf("[CONS] verdict cache write failed: %v", aerr)
		}
	}
	return equivalent, false, true, nil
}

// representative condenses a chain into up to three distinct non-empty
// headers, oldest first.
func representative(c *registry.Chain) string {
	seen := make(map[string]bool)
	var parts []string
	for _, h := range c.Headers {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		parts = append(parts, h)
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, " | ")
}

func verdictKey(a, b string) [2]string {
	if b < a {
		return [2]string{b, a}
	}
	return [2]string{a, b}
}

// #endregion equivalence

// #region merge
// mergeChains builds the merged chain: year-sorted union of both chains'
// entries, the lower-ID chain winning duplicate years. Gaps are recomputed
// over the merged span. Transition similarities carry over where two
// entries were already adjacent in a source chain; stitched transitions
// are marked oracle-validated.
func (c *Consolidator) mergeChains(entryA, entryB Entry) Entry {
	a, b := entryA.Chain, entryB.Chain

	type slot struct {
		table, header, mask string
		sourceID            string
		sourceIdx           int
	}
	byYear := make(map[int]slot)
	for _, src := range []*registry.Chain{a, b} {
		for i, y := range src.Years {
			if _, taken := byYear[y]; taken {
				continue
			}
			byYear[y] = slot{
				table:     src.Tables[i],
				header:    src.Headers[i],
				mask:      src.MaskRefs[i],
				sourceID:  src.ID,
				sourceIdx: i,
			}
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	merged := &registry.Chain{
		ID:              "merged_" + uuid.New().String(),
		Status:          registry.StatusMerged,
		Gaps:            []int{},
		Similarities:    []float64{},
		OracleValidated: []bool{},
		SourceChains:    sourceIDs(a, b),
		SourceChapters:  chapterUnion(entryA.Chapters, entryB.Chapters),
	}
	sims := map[string][]float64{a.ID: a.Similarities, b.ID: b.Similarities}
	oracleFlags := map[string][]bool{a.ID: a.OracleValidated, b.ID: b.OracleValidated}
	var prev slot
	for i, y := range years {
		s := byYear[y]
		merged.Tables = append(merged.Tables, s.table)
		merged.Years = append(merged.Years, y)
		merged.Headers = append(merged.Headers, s.header)
		merged.MaskRefs = append(merged.MaskRefs, s.mask)
		if i > 0 {
			if s.sourceID == prev.sourceID && s.sourceIdx == prev.sourceIdx+1 {
				merged.Similarities = append(merged.Similarities, sims[s.sourceID][s.sourceIdx-1])
				merged.OracleValidated = append(merged.OracleValidated, oracleFlags[s.sourceID][s.sourceIdx-1])
			} else {
				merged.Similarities = append(merged.Similarities, 1.0)
				merged.OracleValidated = append(merged.OracleValidated, true)
			}
		}
		prev = s
	}
	for y := years[0]; y <= years[len(years)-1]; y++ {
		if _, covered := byYear[y]; !covered {
			merged.Gaps = append(merged.Gaps, y)
		}
	}
	return Entry{Chain: merged, Chapters: merged.SourceChapters}
}

func sourceIDs(a, b *registry.Chain) []string {
	var out []string
	for _, src := range []*registry.Chain{a, b} {
		if len(src.SourceChains) > 0 {
			out = append(out, src.SourceChains...)
		} else {
			out = append(out, src.ID)
		}
	}
	return out
}

func chapterUnion(a, b []int) []int {
	set := make(map[int]bool)
	for _, ch := range a {
		set[ch] = true
	}
	for _, ch := range b {
		set[ch] = true
	}
	out := make([]int, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// #endregion merge

// #region output
// Snapshot flattens the working set back to a chain map for JSON output.
func Snapshot(working map[string]Entry) map[string]*registry.Chain {
	out := make(map[string]*registry.Chain, len(working))
	for id, e := range working {
		out[id] = e.Chain
	}
	return out
}

// #endregion output
