package replay

import (
	"context"
	"fmt"

	"github.com/eladbr/table-chains/go-matcher/internal/matcher"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/stats"
)

// #region result
// Result bundles a replay run's final registry and per-year reports.
type Result struct {
	Registry *registry.Registry
	Reports  []*matcher.YearReport
	Stats    *stats.Collector
}

// #endregion result

// #region replay
// Replay runs the fixture's tables through the pipeline year by year.
// Operates entirely in memory; the fixture's embedding map replaces the
// model service and the mock rule replaces the oracle.
func Replay(ctx context.Context, f *Fixture) (*Result, error) {
	embedder := semantic.NewEmbedder(func(_ context.Context, text string) ([]float32, error) {
		emb, ok := f.Embeddings[text]
		if !ok {
			return nil, fmt.Errorf("fixture has no embedding for %q", text)
		}
		return emb, nil
	})

	tablesByYear := make(map[int][]registry.Table)
	for _, t := range f.Tables {
		tablesByYear[t.Year] = append(tablesByYear[t.Year], t)
	}

	m := matcher.New(f.Config, embedder, nil, nil)
	reg, reports, coll, err := m.ProcessChapter(ctx, f.Chapter, tablesByYear)
	if err != nil {
		return nil, err
	}
	return &Result{Registry: reg, Reports: reports, Stats: coll}, nil
}

// #endregion replay

// #region check
// Check compares the final registry against the fixture's expected chains
// and returns one message per mismatch. Chains are identified by their
// table sequence.
func Check(reg *registry.Registry, expected []ExpectedChain) []string {
	var problems []string
	for _, exp := range expected {
		c := findByTables(reg, exp.Tables)
		if c == nil {
			problems = append(problems, fmt.Sprintf("no chain with tables %v", exp.Tables))
			continue
		}
		if len(exp.Years) > 0 && !intsEqual(c.Years, exp.Years) {
			problems = append(problems, fmt.Sprintf("chain %s: years %v, expected %v", c.ID, c.Years, exp.Years))
		}
		if exp.Status != "" && string(c.Status) != exp.Status {
			problems = append(problems, fmt.Sprintf("chain %s: status %s, expected %s", c.ID, c.Status, exp.Status))
		}
	}
	return problems
}

func findByTables(reg *registry.Registry, tables []string) *registry.Chain {
	for _, id := range reg.IDs() {
		c := reg.Get(id)
		if stringsEqual(c.Tables, tables) {
			return c
		}
	}
	return nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// #endregion check
