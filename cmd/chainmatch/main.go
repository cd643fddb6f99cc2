package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eladbr/table-chains/go-matcher/internal/config"
	"github.com/eladbr/table-chains/go-matcher/internal/matcher"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/stats"
	"github.com/eladbr/table-chains/go-matcher/internal/store"
)

// #region main
func main() {
	tablesPath := flag.String("tables", "", "path to table metadata JSON")
	outDir := flag.String("out", "chains", "output directory for chains_chapter_N.json")
	configPath := flag.String("config", "", "matching config JSON (defaults if empty)")
	dbPath := flag.String("db", envOr("CHAINMATCH_DB", ""), "optional SQLite archive path")
	oracleAddr := flag.String("oracle", envOr("CHAINMATCH_ORACLE", ""), "semantic service address (mock rule if empty)")
	reportPath := flag.String("report", "", "optional JSON summary output path")
	chapters := flag.String("chapters", "", "comma-separated chapter filter, e.g. 1,3,7")
	fromYear := flag.Int("from", 0, "first year to process (0 = all)")
	toYear := flag.Int("to", 0, "last year to process (0 = all)")
	workers := flag.Int("workers", 4, "parallel chapter workers")
	flag.Parse()

	if *tablesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: chainmatch --tables tables.json [--out dir] [--config cfg.json] [--db archive.db] [--oracle host:port] [--chapters 1,2] [--from Y] [--to Y] [--workers N]")
		os.Exit(2)
	}

	cfg := config.DefaultMatchingConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadMatchingConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *oracleAddr != "" {
		cfg.OracleEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	tables, err := loadTables(*tablesPath)
	if err != nil {
		log.Fatalf("load tables: %v", err)
	}
	byChapter := groupTables(tables, parseChapters(*chapters), *fromYear, *toYear)
	if len(byChapter) == 0 {
		log.Fatalf("no tables selected from %s", *tablesPath)
	}

	embedFn, validator, cleanup, err := connectSemantic(*oracleAddr)
	if err != nil {
		log.Fatalf("connect semantic service: %v", err)
	}
	defer cleanup()
	embedder := semantic.NewEmbedder(embedFn)

	var archive *store.Store
	if *dbPath != "" {
		archive, err = store.NewStore(*dbPath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer archive.Close()
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	total := stats.NewCollector()
	start := time.Now()

	chapterIDs := make([]int, 0, len(byChapter))
	for ch := range byChapter {
		chapterIDs = append(chapterIDs, ch)
	}
	sort.Ints(chapterIDs)

	failed := runChapters(context.Background(), chapterIDs, *workers, func(ctx context.Context, ch int) error {
		m := matcher.New(cfg, embedder, validator, archive)
		reg, _, coll, err := m.ProcessChapter(ctx, ch, byChapter[ch])
		if err != nil {
			return err
		}
		total.Add(coll)
		outPath := filepath.Join(*outDir, fmt.Sprintf("chains_chapter_%d.json", ch))
		if err := reg.SaveJSON(outPath); err != nil {
			return err
		}
		if archive != nil {
			if err := archive.SaveChains(ch, reg.Chains()); err != nil {
				return err
			}
		}
		log.Printf("[MATCH] chapter %d done: %d chains -> %s", ch, reg.Len(), outPath)
		return nil
	})

	log.Printf("[MATCH] %d chapters in %s, %d headers embedded", len(chapterIDs), time.Since(start).Round(time.Millisecond), embedder.Size())
	if len(failed) > 0 {
		log.Printf("[MATCH] %d chapters failed and were skipped: %v", len(failed), failed)
	}
	fmt.Print(total.Report())
	if *reportPath != "" {
		if err := total.WriteJSON(*reportPath); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

// runChapters fans chapters out to parallel workers. A chapter that fails
// is logged and skipped so the rest of the run still completes and reports;
// the failed chapter ids come back sorted for the summary.
func runChapters(ctx context.Context, chapterIDs []int, workers int, process func(ctx context.Context, chapter int) error) []int {
	var mu sync.Mutex
	var failed []int

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, ch := range chapterIDs {
		ch := ch
		g.Go(func() error {
			if err := process(ctx, ch); err != nil {
				log.Printf("[MATCH] chapter %d failed, continuing: %v", ch, err)
				mu.Lock()
				failed = append(failed, ch)
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()
	sort.Ints(failed)
	return failed
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion main

// #region loading
// loadTables reads the extraction stage's table metadata: a JSON array of
// table records.
func loadTables(path string) ([]registry.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}
	var tables []registry.Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse tables %s: %w", path, err)
	}
	return tables, nil
}

// groupTables indexes tables by chapter and year, applying the chapter and
// year-range filters.
func groupTables(tables []registry.Table, wanted map[int]bool, fromYear, toYear int) map[int]map[int][]registry.Table {
	byChapter := make(map[int]map[int][]registry.Table)
	for _, t := range tables {
		if wanted != nil && !wanted[t.Chapter] {
			continue
		}
		if fromYear != 0 && t.Year < fromYear {
			continue
		}
		if toYear != 0 && t.Year > toYear {
			continue
		}
		if byChapter[t.Chapter] == nil {
			byChapter[t.Chapter] = make(map[int][]registry.Table)
		}
		byChapter[t.Chapter][t.Year] = append(byChapter[t.Chapter][t.Year], t)
	}
	return byChapter
}

func parseChapters(s string) map[int]bool {
	if s == "" {
		return nil
	}
	wanted := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		ch, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Fatalf("bad chapter %q", part)
		}
		wanted[ch] = true
	}
	return wanted
}

// #endregion loading

// #region semantic-wiring
// connectSemantic wires the embedding function and oracle validator. With
// no address the embedder has nothing to call, so headers get deterministic
// hash embeddings; matching then degrades to exact-header continuity, which
// is only useful for dry runs.
func connectSemantic(addr string) (semantic.EmbedFunc, oracle.Validator, func(), error) {
	if addr == "" {
		log.Println("[MATCH] no semantic service configured, using hash embeddings and mock oracle")
		return semantic.HashEmbed, nil, func() {}, nil
	}
	client, err := semantic.NewClient(addr)
	if err != nil {
		return nil, nil, nil, err
	}
	return client.Embed, client, func() { client.Close() }, nil
}

// #endregion semantic-wiring
