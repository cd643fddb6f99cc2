package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/consolidate"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/store"
)

// #region main
func main() {
	chainsDir := flag.String("chains", "chains", "directory holding chains_chapter_N.json files")
	outPath := flag.String("out", "consolidated_chains.json", "output path for the consolidated chain set")
	reportPath := flag.String("report", "", "optional path for the JSON merge report")
	dbPath := flag.String("db", "", "optional SQLite archive for the verdict cache")
	oracleAddr := flag.String("oracle", "", "semantic service address (no merges without one)")
	preScreen := flag.Float64("prescreen", 0, "override cosine pre-screen threshold (0 = default)")
	maxIter := flag.Int("iterations", 0, "override iteration cap (0 = default)")
	flag.Parse()

	cfg := config.DefaultConsolidateConfig()
	if *preScreen != 0 {
		cfg.PreScreenThreshold = *preScreen
	}
	if *maxIter != 0 {
		cfg.MaxIterations = *maxIter
	}
	if *oracleAddr != "" {
		cfg.OracleEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	byChapter, err := loadChapters(*chainsDir)
	if err != nil {
		log.Fatalf("load chains: %v", err)
	}
	if len(byChapter) == 0 {
		log.Fatalf("no chains_chapter_*.json files in %s", *chainsDir)
	}

	embedFn := semantic.HashEmbed
	var validator oracle.Validator
	if *oracleAddr != "" {
		client, err := semantic.NewClient(*oracleAddr)
		if err != nil {
			log.Fatalf("connect semantic service: %v", err)
		}
		defer client.Close()
		embedFn = client.Embed
		validator = client
	} else {
		log.Println("[CONS] no semantic service configured: pairs cannot be confirmed, pass will be a no-op")
	}

	var archive *store.Store
	if *dbPath != "" {
		archive, err = store.NewStore(*dbPath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer archive.Close()
	}

	cons := consolidate.New(cfg, semantic.NewEmbedder(embedFn), validator, archive)
	working, report, err := cons.Run(context.Background(), byChapter)
	if err != nil {
		log.Fatalf("consolidation failed: %v", err)
	}

	if err := writeJSON(*outPath, consolidate.Snapshot(working)); err != nil {
		log.Fatalf("write output: %v", err)
	}
	if *reportPath != "" {
		if err := writeJSON(*reportPath, report); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
	log.Printf("[CONS] %d merges over %d iterations, %d chains -> %s",
		report.TotalMerges, len(report.Iterations), len(working), *outPath)
}

// #endregion main

// #region loading
// loadChapters reads every chains_chapter_N.json in dir, keyed by N.
func loadChapters(dir string) (map[int]map[string]*registry.Chain, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "chains_chapter_*.json"))
	if err != nil {
		return nil, err
	}
	byChapter := make(map[int]map[string]*registry.Chain)
	for _, path := range paths {
		var chapter int
		if _, err := fmt.Sscanf(filepath.Base(path), "chains_chapter_%d.json", &chapter); err != nil {
			continue
		}
		chains, err := registry.LoadChainsJSON(path)
		if err != nil {
			return nil, err
		}
		byChapter[chapter] = chains
		log.Printf("[CONS] chapter %d: %d chains from %s", chapter, len(chains), path)
	}
	return byChapter, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// #endregion loading
