package lifecycle

import (
	"context"
	"math"
	"testing"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
)

func table(id string, year int, header string) registry.Table {
	return registry.Table{ID: id, Chapter: 1, Year: year, Header: header, MaskRef: "m_" + id}
}

// unit vector with the given cosine against (1,0); rescaled similarity
// against refVec is (cos+1)/2.
func vecWithRescaled(sim float64) []float32 {
	cos := 2*sim - 1
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

var refVec = []float32{1, 0}

func newManager(validator oracle.Validator) *Manager {
	return NewManager(config.DefaultMatchingConfig(), validator)
}

func TestApplyMatches(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Spawn(table("t1", 2001, "Population"), 2001)

	m := newManager(nil)
	tables := map[string]registry.Table{"t2": table("t2", 2002, "Population")}
	err := m.ApplyMatches(reg, tables, 2002, []registry.Match{
		{ChainID: "chain_t1", TableID: "t2", Similarity: 0.95, OracleValidated: true},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	c := reg.Get("chain_t1")
	if c.LastYear() != 2002 || c.Status != registry.StatusActive {
		t.Errorf("chain not advanced: %+v", c)
	}
	if c.Similarities[0] != 0.95 || !c.OracleValidated[0] {
		t.Errorf("match record not carried: %+v", c)
	}
}

func TestApplyMatches_UnknownChain(t *testing.T) {
	m := newManager(nil)
	err := m.ApplyMatches(registry.NewRegistry(), nil, 2002, []registry.Match{{ChainID: "nope", TableID: "t"}})
	if err == nil {
		t.Error("expected error for unknown chain")
	}
}

// An unmatched active chain inside the gap budget goes dormant and records
// the missed year.
func TestCheckGaps_Dormancy(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Spawn(table("t1", 2010, "Population"), 2010)

	m := newManager(nil)
	report := m.CheckGaps(reg, 2011, map[string]bool{})

	c := reg.Get("chain_t1")
	if c.Status != registry.StatusDormant || c.DormantSince != 2010 {
		t.Errorf("expected dormant since 2010, got %s/%d", c.Status, c.DormantSince)
	}
	if len(c.Gaps) != 1 || c.Gaps[0] != 2011 {
		t.Errorf("expected gap 2011, got %v", c.Gaps)
	}
	if len(report.NewDormant) != 1 || report.NewDormant[0] != "chain_t1" {
		t.Errorf("report missing dormancy: %+v", report)
	}
}

// Gaps are monotone: each missed year extends the record until the budget
// runs out.
func TestCheckGaps_DormantAccumulatesThenEnds(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Spawn(table("t1", 2010, "Population"), 2010)
	m := newManager(nil)

	for _, year := range []int{2011, 2012, 2013} {
		m.CheckGaps(reg, year, map[string]bool{})
	}
	c := reg.Get("chain_t1")
	if c.Status != registry.StatusDormant {
		t.Fatalf("expected still dormant at gap 3, got %s", c.Status)
	}
	if len(c.Gaps) != 3 {
		t.Errorf("expected gaps [2011 2012 2013], got %v", c.Gaps)
	}

	// dormant since 2010, year 2014: gap of 4 exceeds the budget of 3.
	report := m.CheckGaps(reg, 2014, map[string]bool{})
	if c.Status != registry.StatusEnded {
		t.Errorf("expected ended, got %s", c.Status)
	}
	if len(report.Ended) != 1 {
		t.Errorf("report missing termination: %+v", report)
	}
	if len(c.Gaps) != 3 {
		t.Errorf("terminal year must not extend gaps: %v", c.Gaps)
	}
}

func TestCheckGaps_MatchedAndEndedUntouched(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Spawn(table("t1", 2010, "a"), 2010)
	ended := reg.Spawn(table("t2", 2005, "b"), 2005)
	ended.Status = registry.StatusEnded

	m := newManager(nil)
	report := m.CheckGaps(reg, 2011, map[string]bool{"chain_t1": true})

	if reg.Get("chain_t1").Status != registry.StatusActive {
		t.Error("matched chain must stay active")
	}
	if len(report.NewDormant) != 0 || len(report.Ended) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

// Reactivation above the threshold needs no oracle and is recorded as such.
func TestReactivate_AboveThreshold(t *testing.T) {
	reg := registry.NewRegistry()
	c := reg.Spawn(table("t1", 2010, "Population"), 2010)
	c.Status = registry.StatusDormant
	c.DormantSince = 2010
	c.Gaps = []int{2011}

	m := newManager(nil)
	pool := []registry.Table{table("t9", 2012, "Population")}
	headEmb := map[string][]float32{"t1": refVec}
	tableEmb := map[string][]float32{"t9": vecWithRescaled(0.98)}

	reactivations, remaining := m.Reactivate(context.Background(), reg, 2012, pool, headEmb, tableEmb)

	if len(reactivations) != 1 || len(remaining) != 0 {
		t.Fatalf("expected one reactivation, got %v / %v", reactivations, remaining)
	}
	r := reactivations[0]
	if r.ChainID != "chain_t1" || r.TableID != "t9" || r.OracleValidated {
		t.Errorf("unexpected reactivation record: %+v", r)
	}
	if c.Status != registry.StatusActive || c.DormantSince != 0 {
		t.Errorf("chain not reactivated: %s/%d", c.Status, c.DormantSince)
	}
	if c.LastYear() != 2012 {
		t.Errorf("expected year 2012 appended, got %v", c.Years)
	}
	if len(c.Gaps) != 1 || c.Gaps[0] != 2011 {
		t.Errorf("earlier gap must survive: %v", c.Gaps)
	}
}

// In the oracle band the mock rule applies: 0.93 is accepted and flagged
// oracle-validated.
func TestReactivate_OracleBand(t *testing.T) {
	reg := registry.NewRegistry()
	c := reg.Spawn(table("t1", 2010, "Population"), 2010)
	c.Status = registry.StatusDormant
	c.DormantSince = 2010

	m := newManager(nil)
	pool := []registry.Table{table("t9", 2011, "Population, total")}
	headEmb := map[string][]float32{"t1": refVec}
	tableEmb := map[string][]float32{"t9": vecWithRescaled(0.93)}

	reactivations, _ := m.Reactivate(context.Background(), reg, 2011, pool, headEmb, tableEmb)
	if len(reactivations) != 1 {
		t.Fatalf("expected reactivation at 0.93, got %v", reactivations)
	}
	if !reactivations[0].OracleValidated {
		t.Error("band reactivation must be flagged oracle-validated")
	}
}

// Below the oracle floor the table stays in the pool.
func TestReactivate_BelowFloor(t *testing.T) {
	reg := registry.NewRegistry()
	c := reg.Spawn(table("t1", 2010, "Population"), 2010)
	c.Status = registry.StatusDormant

	m := newManager(nil)
	pool := []registry.Table{table("t9", 2011, "Unrelated")}
	headEmb := map[string][]float32{"t1": refVec}
	tableEmb := map[string][]float32{"t9": vecWithRescaled(0.60)}

	reactivations, remaining := m.Reactivate(context.Background(), reg, 2011, pool, headEmb, tableEmb)
	if len(reactivations) != 0 || len(remaining) != 1 {
		t.Errorf("expected no reactivation, got %v / %v", reactivations, remaining)
	}
	if c.Status != registry.StatusDormant {
		t.Errorf("chain must stay dormant, got %s", c.Status)
	}
}

// First fit: the first pool table clearing the bar wins, and a claimed
// table is gone for later chains.
func TestReactivate_FirstFitClaims(t *testing.T) {
	reg := registry.NewRegistry()
	a := reg.Spawn(table("t1", 2010, "Population"), 2010)
	a.Status = registry.StatusDormant
	b := reg.Spawn(table("t2", 2010, "Population density"), 2010)
	b.Status = registry.StatusDormant

	m := newManager(nil)
	pool := []registry.Table{table("t8", 2011, "Population A"), table("t9", 2011, "Population B")}
	headEmb := map[string][]float32{"t1": refVec, "t2": refVec}
	tableEmb := map[string][]float32{
		"t8": vecWithRescaled(0.98),
		"t9": vecWithRescaled(0.98),
	}

	reactivations, remaining := m.Reactivate(context.Background(), reg, 2011, pool, headEmb, tableEmb)
	if len(reactivations) != 2 || len(remaining) != 0 {
		t.Fatalf("expected both chains reactivated, got %v / %v", reactivations, remaining)
	}
	// chain_t1 scans first and takes t8; chain_t2 gets t9.
	if reactivations[0].ChainID != "chain_t1" || reactivations[0].TableID != "t8" {
		t.Errorf("unexpected first fit: %+v", reactivations[0])
	}
	if reactivations[1].ChainID != "chain_t2" || reactivations[1].TableID != "t9" {
		t.Errorf("unexpected second fit: %+v", reactivations[1])
	}
}

func TestSpawnNew(t *testing.T) {
	reg := registry.NewRegistry()
	m := newManager(nil)
	ids := m.SpawnNew(reg, []registry.Table{table("t5", 2012, "New series")}, 2012)
	if len(ids) != 1 || ids[0] != "chain_t5" {
		t.Fatalf("expected chain_t5, got %v", ids)
	}
	if reg.Get("chain_t5").Status != registry.StatusActive {
		t.Error("spawned chain must be active")
	}
}
