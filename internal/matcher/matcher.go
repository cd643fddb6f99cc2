// Package matcher runs the per-chapter, per-year matching pipeline:
// embeddings, similarity matrix, conflict scan, optimal assignment,
// validation tiering, lifecycle transitions, and split/merge detection.
package matcher

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/eladbr/table-chains/go-matcher/internal/assign"
	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/conflict"
	"github.com/eladbr/table-chains/go-matcher/internal/lifecycle"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/similarity"
	"github.com/eladbr/table-chains/go-matcher/internal/splitmerge"
	"github.com/eladbr/table-chains/go-matcher/internal/stats"
	"github.com/eladbr/table-chains/go-matcher/internal/store"
)

// #region report
// YearReport is everything one year's pass produced for one chapter.
type YearReport struct {
	Chapter int
	Year    int

	Matches  []registry.Match
	Rejected []assign.Candidate
	Manual   []assign.Candidate

	Conflicts   []conflict.Conflict
	Resolutions []conflict.Resolution

	Splits  []splitmerge.Split
	Merges  []splitmerge.Merge
	Complex []splitmerge.Complex

	Gaps          lifecycle.GapReport
	Reactivations []lifecycle.Reactivation
	Spawned       []string
}

// #endregion report

// #region matcher-struct
// Matcher drives the pipeline for one or more chapters. The embedder and
// archive may be shared across chapter workers; the registry must not be.
type Matcher struct {
	cfg      config.MatchingConfig
	embedder *semantic.Embedder
	engine   *oracle.Engine
	solver   *assign.Solver
	resolver *conflict.Resolver
	detector *splitmerge.Detector
	life     *lifecycle.Manager
	archive  *store.Store
}

// New assembles a matcher. validator may be nil (mock fallback); archive
// may be nil to skip SQLite provenance.
func New(cfg config.MatchingConfig, embedder *semantic.Embedder, validator oracle.Validator, archive *store.Store) *Matcher {
	if !cfg.OracleEnabled {
		validator = nil
	}
	return &Matcher{
		cfg:      cfg,
		embedder: embedder,
		engine:   oracle.NewEngine(validator, cfg.ConfidentThreshold, cfg.OracleFloor),
		solver:   assign.NewSolver(cfg.SimilarityThreshold),
		resolver: conflict.NewResolver(cfg.ConflictThreshold),
		detector: splitmerge.NewDetector(cfg.SplitThreshold, cfg.MergeThreshold),
		life:     lifecycle.NewManager(cfg, validator),
		archive:  archive,
	}
}

// #endregion matcher-struct

// #region process-chapter
// ProcessChapter runs every year of one chapter in ascending order against
// a fresh registry. A panic in the pipeline is contained to the chapter
// and surfaced as an error.
func (m *Matcher) ProcessChapter(ctx context.Context, chapter int, tablesByYear map[int][]registry.Table) (reg *registry.Registry, reports []*YearReport, coll *stats.Collector, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chapter %d: pipeline panic: %v", chapter, r)
		}
	}()

	years := make([]int, 0, len(tablesByYear))
	for y := range tablesByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	reg = registry.NewRegistry()
	coll = stats.NewCollector()
	for _, year := range years {
		report, yerr := m.ProcessYear(ctx, reg, chapter, year, tablesByYear[year])
		if yerr != nil {
			return nil, nil, nil, fmt.Errorf("chapter %d year %d: %w", chapter, year, yerr)
		}
		reports = append(reports, report)
		report.fold(coll)
	}
	coll.OracleCalls = m.engine.Calls()
	return reg, reports, coll, nil
}

// #endregion process-chapter

// #region process-year
// ProcessYear advances one chapter registry by one year of tables. On the
// first year (empty registry) every table seeds a singleton chain.
func (m *Matcher) ProcessYear(ctx context.Context, reg *registry.Registry, chapter, year int, tables []registry.Table) (*YearReport, error) {
	report := &YearReport{Chapter: chapter, Year: year}

	if reg.Len() == 0 {
		n := reg.InitFromFirstYear(tables)
		for _, id := range reg.IDs() {
			report.Spawned = append(report.Spawned, id)
		}
		log.Printf("[MATCH] ch%d %d: seeded %d chains", chapter, year, n)
		return report, nil
	}

	tableByID := make(map[string]registry.Table, len(tables))
	for _, t := range tables {
		tableByID[t.ID] = t
	}

	// Embeddings for current tables and for every live chain head. The
	// shared cache makes repeat headers free.
	tableEmb := make(map[string][]float32, len(tables))
	for _, t := range tables {
		emb, err := m.embedder.Embed(ctx, t.Header)
		if err != nil {
			log.Printf("[MATCH] ch%d %d: embed table %s failed: %v", chapter, year, t.ID, err)
			continue
		}
		tableEmb[t.ID] = emb
	}
	headEmb := make(map[string][]float32)
	chainEmb := make(map[string][]float32)
	for _, id := range reg.IDs() {
		c := reg.Get(id)
		if c.Status != registry.StatusActive && c.Status != registry.StatusDormant {
			continue
		}
		emb, err := m.embedder.Embed(ctx, c.Headers[len(c.Headers)-1])
		if err != nil {
			log.Printf("[MATCH] ch%d %d: embed chain %s failed: %v", chapter, year, id, err)
			continue
		}
		headEmb[c.LastTable()] = emb
		if c.Status == registry.StatusActive {
			chainEmb[id] = emb
		}
	}

	matrix := similarity.Build(chainEmb, tableEmb)

	// Conflicts are advisory: they feed the audit report and never override
	// the assignment below.
	report.Conflicts = m.resolver.Detect(matrix)
	report.Resolutions = m.resolver.Resolve(report.Conflicts)
	for _, r := range report.Resolutions {
		log.Printf("[MATCH] ch%d %d: conflict on %s, advisory winner %s (%.3f)", chapter, year, r.TableID, r.WinningChain, r.Confidence)
	}

	result := m.solver.Solve(matrix)

	matched := make(map[string]bool)
	unmatchedTables := make(map[string]bool)
	for _, id := range result.UnmatchedTables {
		unmatchedTables[id] = true
	}
	for _, t := range tables {
		if _, ok := tableEmb[t.ID]; !ok {
			unmatchedTables[t.ID] = true
		}
	}

	for _, cand := range result.Candidates {
		c := reg.Get(cand.ChainID)
		t := tableByID[cand.TableID]
		action, v, tier := m.engine.Judge(ctx, c.Headers, t.Header, cand.Similarity)
		m.logDecision(chapter, year, cand, tier, action, v)
		switch action {
		case oracle.ActionConfirm:
			report.Matches = append(report.Matches, registry.Match{
				ChainID:         cand.ChainID,
				TableID:         cand.TableID,
				Similarity:      cand.Similarity,
				OracleValidated: tier == oracle.TierMedium,
			})
			matched[cand.ChainID] = true
		case oracle.ActionReject:
			report.Rejected = append(report.Rejected, cand)
			unmatchedTables[cand.TableID] = true
		default:
			report.Manual = append(report.Manual, cand)
			unmatchedTables[cand.TableID] = true
		}
	}

	if err := m.life.ApplyMatches(reg, tableByID, year, report.Matches); err != nil {
		return nil, err
	}

	report.Gaps = m.life.CheckGaps(reg, year, matched)

	pool := make([]registry.Table, 0, len(unmatchedTables))
	for _, t := range tables {
		if unmatchedTables[t.ID] {
			pool = append(pool, t)
		}
	}
	var remaining []registry.Table
	report.Reactivations, remaining = m.life.Reactivate(ctx, reg, year, pool, headEmb, tableEmb)

	report.Spawned = m.life.SpawnNew(reg, remaining, year)

	report.Splits = m.detector.DetectSplits(matrix)
	report.Merges = m.detector.DetectMerges(matrix)
	report.Complex = m.detector.DetectComplex(report.Splits, report.Merges)

	log.Printf("[MATCH] ch%d %d: %d matched, %d rejected, %d manual, %d dormant, %d reactivated, %d ended, %d spawned",
		chapter, year, len(report.Matches), len(report.Rejected), len(report.Manual),
		len(report.Gaps.NewDormant), len(report.Reactivations), len(report.Gaps.Ended), len(report.Spawned))
	return report, nil
}

// #endregion process-year

// #region provenance
func (m *Matcher) logDecision(chapter, year int, cand assign.Candidate, tier oracle.Tier, action oracle.Action, v oracle.Validation) {
	if m.archive == nil {
		return
	}
	err := m.archive.LogDecision(store.Decision{
		Chapter:    chapter,
		Year:       year,
		ChainID:    cand.ChainID,
		TableID:    cand.TableID,
		Similarity: cand.Similarity,
		Tier:       string(tier),
		Action:     string(action),
		Rationale:  v.Rationale,
	})
	if err != nil {
		log.Printf("[MATCH] decision log failed: %v", err)
	}
}

// #endregion provenance

// #region fold
// fold adds the report's counts into a stats collector.
func (r *YearReport) fold(c *stats.Collector) {
	delta := &stats.Collector{
		YearsProcessed: 1,
		Matches:        len(r.Matches),
		Rejections:     len(r.Rejected),
		Conflicts:      len(r.Conflicts),
		Splits:         len(r.Splits),
		Merges:         len(r.Merges),
		Complex:        len(r.Complex),
		NewDormant:     len(r.Gaps.NewDormant),
		Reactivations:  len(r.Reactivations),
		Ended:          len(r.Gaps.Ended),
		Spawned:        len(r.Spawned),
	}
	for _, match := range r.Matches {
		if match.OracleValidated {
			delta.OracleAccepted++
		} else {
			delta.AutoAccepted++
		}
	}
	for _, cand := range r.Manual {
		delta.Review = append(delta.Review, stats.ReviewItem{
			Chapter:    r.Chapter,
			Year:       r.Year,
			ChainID:    cand.ChainID,
			TableID:    cand.TableID,
			Similarity: cand.Similarity,
			Rationale:  "oracle verdict below confidence bar",
		})
	}
	c.Add(delta)
}

// #endregion fold
