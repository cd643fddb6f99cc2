// Package replay runs recorded chapter timelines through the full matching
// pipeline in memory, with fixture-supplied embeddings standing in for the
// model service. Fixtures double as regression baselines: when thresholds
// change, expected chain shapes catch the drift.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string                `json:"description"`
	Chapter     int                   `json:"chapter"`
	Config      config.MatchingConfig `json:"config"`
	Tables      []registry.Table      `json:"tables"`

	// Embeddings maps header text to its vector. Every distinct header in
	// Tables must have an entry.
	Embeddings map[string][]float32 `json:"embeddings"`

	Expected []ExpectedChain `json:"expected"`
}

// ExpectedChain is the shape one chain must have after the replay.
type ExpectedChain struct {
	Tables []string `json:"tables"`
	Years  []int    `json:"years"`
	Status string   `json:"status"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if err := f.Config.Validate(); err != nil {
		return err
	}
	for _, t := range f.Tables {
		if _, ok := f.Embeddings[t.Header]; !ok {
			return fmt.Errorf("no embedding for header %q (table %s)", t.Header, t.ID)
		}
	}
	return nil
}

// #endregion fixture-loader
