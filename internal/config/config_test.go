package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Defaults must pass their own validation.
func TestDefaults_Valid(t *testing.T) {
	if err := DefaultMatchingConfig().Validate(); err != nil {
		t.Fatalf("default matching config invalid: %v", err)
	}
	if err := DefaultConsolidateConfig().Validate(); err != nil {
		t.Fatalf("default consolidate config invalid: %v", err)
	}
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	cfg := DefaultMatchingConfig()
	cfg.SimilarityThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for threshold > 1")
	}

	cfg = DefaultMatchingConfig()
	cfg.OracleFloor = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative floor")
	}

	cfg = DefaultMatchingConfig()
	cfg.MaxGapYears = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative gap budget")
	}
}

// The oracle band must be well-formed: floor <= confident.
func TestValidate_RejectsInvertedBand(t *testing.T) {
	cfg := DefaultMatchingConfig()
	cfg.OracleFloor = 0.98
	cfg.ConfidentThreshold = 0.90
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for floor above confident threshold")
	}
}

func TestValidate_ConsolidateIterationCap(t *testing.T) {
	cfg := DefaultConsolidateConfig()
	cfg.MaxIterations = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero iteration cap")
	}
}

func TestLoadMatchingConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultMatchingConfig()
	cfg.SimilarityThreshold = 0.80
	cfg.MaxGapYears = 5
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadMatchingConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

// Absent fields fall back to defaults rather than zero values.
func TestLoadMatchingConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	writeFile(t, path, `{"max_gap_years": 7}`)

	loaded, err := LoadMatchingConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.MaxGapYears != 7 {
		t.Errorf("expected max_gap_years=7, got %d", loaded.MaxGapYears)
	}
	if loaded.SimilarityThreshold != DefaultMatchingConfig().SimilarityThreshold {
		t.Errorf("expected default similarity threshold, got %v", loaded.SimilarityThreshold)
	}
}

func TestLoadMatchingConfig_Missing(t *testing.T) {
	if _, err := LoadMatchingConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
