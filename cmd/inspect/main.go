package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/eladbr/table-chains/go-matcher/internal/registry"
	"github.com/eladbr/table-chains/go-matcher/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the chain archive database")
	chainsPath := flag.String("chains", "", "inspect a chains_chapter_N.json file instead of the archive")
	chapter := flag.Int("chapter", 0, "chapter to inspect (archive mode)")
	chainID := flag.String("chain", "", "show single chain detail")
	last := flag.Int("last", 20, "show N most recent decisions (archive mode)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" && *chainsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db archive.db --chapter N [--chain id] [--last N] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --chains chains_chapter_N.json [--chain id] [--json]")
		os.Exit(2)
	}

	chains, decisions, err := load(*dbPath, *chainsPath, *chapter, *last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *chainID != "" {
		c, ok := chains[*chainID]
		if !ok {
			fmt.Fprintf(os.Stderr, "chain %s not found\n", *chainID)
			os.Exit(1)
		}
		if err := printChain(c, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printSummary(chains, decisions, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func load(dbPath, chainsPath string, chapter, last int) (map[string]*registry.Chain, []store.Decision, error) {
	if chainsPath != "" {
		chains, err := registry.LoadChainsJSON(chainsPath)
		return chains, nil, err
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	chains, err := s.LoadChains(chapter)
	if err != nil {
		return nil, nil, err
	}
	decisions, err := s.Decisions(chapter, last)
	if err != nil {
		return nil, nil, err
	}
	return chains, decisions, nil
}

// #endregion main

// #region summary

type summaryRow struct {
	ChainID string `json:"chain_id"`
	Status  string `json:"status"`
	Years   int    `json:"years"`
	First   int    `json:"first_year"`
	Last    int    `json:"last_year"`
	Gaps    int    `json:"gaps"`
}

func printSummary(chains map[string]*registry.Chain, decisions []store.Decision, jsonOut bool) error {
	ids := make([]string, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]summaryRow, 0, len(ids))
	for _, id := range ids {
		c := chains[id]
		row := summaryRow{ChainID: id, Status: string(c.Status), Years: len(c.Years), Gaps: len(c.Gaps)}
		if len(c.Years) > 0 {
			row.First = c.Years[0]
			row.Last = c.Years[len(c.Years)-1]
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-40s  %-8s  %5s  %5s  %5s  %4s\n", "Chain", "Status", "Years", "First", "Last", "Gaps")
	for _, r := range rows {
		fmt.Printf("%-40s  %-8s  %5d  %5d  %5d  %4d\n", r.ChainID, r.Status, r.Years, r.First, r.Last, r.Gaps)
	}
	if len(decisions) > 0 {
		fmt.Printf("\nrecent decisions:\n")
		for _, d := range decisions {
			fmt.Printf("  %d %s <- %s sim=%.3f tier=%s action=%s %s\n",
				d.Year, d.ChainID, d.TableID, d.Similarity, d.Tier, d.Action, d.Rationale)
		}
	}
	return nil
}

// #endregion summary

// #region detail

func printChain(c *registry.Chain, jsonOut bool) error {
	if jsonOut {
		return printJSON(c)
	}
	fmt.Printf("chain %s (%s)\n", c.ID, c.Status)
	for i := range c.Tables {
		sim := "     "
		oracle := ""
		if i > 0 {
			sim = fmt.Sprintf("%.3f", c.Similarities[i-1])
			if c.OracleValidated[i-1] {
				oracle = " [oracle]"
			}
		}
		fmt.Printf("  %d  %s  %s  %q%s\n", c.Years[i], c.Tables[i], sim, c.Headers[i], oracle)
	}
	if len(c.Gaps) > 0 {
		fmt.Printf("  gaps: %v\n", c.Gaps)
	}
	if c.DormantSince != 0 {
		fmt.Printf("  dormant since: %d\n", c.DormantSince)
	}
	if len(c.SourceChains) > 0 {
		fmt.Printf("  merged from: %v (chapters %v)\n", c.SourceChains, c.SourceChapters)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion detail
