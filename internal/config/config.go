package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region matching-config
// MatchingConfig holds all thresholds for the per-year matching stage.
type MatchingConfig struct {
	// SimilarityThreshold is the base acceptance floor for the optimal
	// assignment. Pairs below it are reported as unmatched.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// ConfidentThreshold is the auto-accept bar. Similarity at or above it
	// skips oracle validation entirely (boundary inclusive).
	ConfidentThreshold float64 `json:"confident_threshold"`

	// OracleFloor is the lowest similarity worth an oracle call. Candidates
	// below it are rejected without spending a call.
	OracleFloor float64 `json:"oracle_floor"`

	ConflictThreshold float64 `json:"conflict_threshold"`
	SplitThreshold    float64 `json:"split_threshold"`
	MergeThreshold    float64 `json:"merge_threshold"`

	// MaxGapYears is the dormancy budget before a chain is ended.
	MaxGapYears int `json:"max_gap_years"`

	// ReactivationThreshold is the similarity at which a dormant chain
	// reactivates without oracle confirmation.
	ReactivationThreshold float64 `json:"reactivation_threshold"`

	OracleEnabled bool `json:"oracle_enabled"`
}

// DefaultMatchingConfig returns the tuned production thresholds.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		SimilarityThreshold:   0.78,
		ConfidentThreshold:    0.97,
		OracleFloor:           0.85,
		ConflictThreshold:     0.85,
		SplitThreshold:        0.80,
		MergeThreshold:        0.80,
		MaxGapYears:           3,
		ReactivationThreshold: 0.97,
		OracleEnabled:         false,
	}
}

// #endregion matching-config

// #region consolidate-config
// ConsolidateConfig holds thresholds for the cross-chain consolidation pass.
type ConsolidateConfig struct {
	// PreScreenThreshold is the cosine floor below which a candidate pair
	// is discarded without an oracle call.
	PreScreenThreshold float64 `json:"pre_screen_threshold"`

	MaxIterations int  `json:"max_iterations"`
	OracleEnabled bool `json:"oracle_enabled"`
}

// DefaultConsolidateConfig returns defaults for the consolidation pass.
func DefaultConsolidateConfig() ConsolidateConfig {
	return ConsolidateConfig{
		PreScreenThreshold: 0.7,
		MaxIterations:      10,
		OracleEnabled:      false,
	}
}

// #endregion consolidate-config

// #region validate
// Validate rejects configurations that cannot produce a meaningful run.
// Called once at startup; an error here is fatal.
func (c MatchingConfig) Validate() error {
	for _, t := range []struct {
		name string
		val  float64
	}{
		{"similarity_threshold", c.SimilarityThreshold},
		{"confident_threshold", c.ConfidentThreshold},
		{"oracle_floor", c.OracleFloor},
		{"conflict_threshold", c.ConflictThreshold},
		{"split_threshold", c.SplitThreshold},
		{"merge_threshold", c.MergeThreshold},
		{"reactivation_threshold", c.ReactivationThreshold},
	} {
		if t.val < 0 || t.val > 1 {
			return fmt.Errorf("%s %.3f out of range [0,1]", t.name, t.val)
		}
	}
	if c.OracleFloor > c.ConfidentThreshold {
		return fmt.Errorf("oracle_floor %.3f above confident_threshold %.3f", c.OracleFloor, c.ConfidentThreshold)
	}
	if c.MaxGapYears < 0 {
		return fmt.Errorf("max_gap_years %d must be non-negative", c.MaxGapYears)
	}
	return nil
}

// Validate rejects out-of-range consolidation settings.
func (c ConsolidateConfig) Validate() error {
	if c.PreScreenThreshold < 0 || c.PreScreenThreshold > 1 {
		return fmt.Errorf("pre_screen_threshold %.3f out of range [0,1]", c.PreScreenThreshold)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations %d must be at least 1", c.MaxIterations)
	}
	return nil
}

// #endregion validate

// #region io
// LoadMatchingConfig reads a MatchingConfig from a JSON file, applying
// defaults for absent fields.
func LoadMatchingConfig(path string) (MatchingConfig, error) {
	cfg := DefaultMatchingConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func (c MatchingConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// #endregion io
