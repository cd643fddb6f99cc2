// Package store archives chain registries, match decisions, and oracle
// equivalence verdicts in SQLite. JSON snapshots remain the interchange
// format; the database adds queryable history and lineage on top.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eladbr/table-chains/go-matcher/internal/registry"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS chains (
	chain_id      TEXT PRIMARY KEY,
	chapter       INTEGER NOT NULL,
	status        TEXT NOT NULL,
	chain_json    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	chapter       INTEGER NOT NULL,
	year          INTEGER NOT NULL,
	chain_id      TEXT NOT NULL,
	table_id      TEXT NOT NULL,
	similarity    REAL NOT NULL,
	tier          TEXT NOT NULL,
	action        TEXT NOT NULL,
	rationale     TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lineage (
	chain_id      TEXT NOT NULL,
	position      INTEGER NOT NULL,
	table_id      TEXT NOT NULL,
	year          INTEGER NOT NULL,
	PRIMARY KEY (chain_id, position),
	FOREIGN KEY (chain_id) REFERENCES chains(chain_id)
);

CREATE TABLE IF NOT EXISTS equivalence_cache (
	key_a         TEXT NOT NULL,
	key_b         TEXT NOT NULL,
	equivalent    INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (key_a, key_b)
);
`

// #endregion schema

// #region types
// Decision is one row of the match provenance log.
type Decision struct {
	Chapter    int
	Year       int
	ChainID    string
	TableID    string
	Similarity float64
	Tier       string
	Action     string
	Rationale  string
	CreatedAt  time.Time
}

// #endregion types

// #region store-struct
// Store manages the chain archive in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save-chains
// SaveChains archives a chapter's chain set: the full JSON record per
// chain plus a lineage row per chain position, replaced atomically.
func (s *Store) SaveChains(chapter int, chains map[string]*registry.Chain) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for id, c := range chains {
		chainJSON, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal chain %s: %w", id, err)
		}
		_, err = tx.Exec(
			`INSERT INTO chains (chain_id, chapter, status, chain_json, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(chain_id) DO UPDATE SET
			   chapter = excluded.chapter,
			   status = excluded.status,
			   chain_json = excluded.chain_json,
			   updated_at = excluded.updated_at`,
			id, chapter, string(c.Status), string(chainJSON), now,
		)
		if err != nil {
			return fmt.Errorf("upsert chain %s: %w", id, err)
		}

		if _, err := tx.Exec(`DELETE FROM lineage WHERE chain_id = ?`, id); err != nil {
			return fmt.Errorf("clear lineage %s: %w", id, err)
		}
		for pos, tableID := range c.Tables {
			_, err = tx.Exec(
				`INSERT INTO lineage (chain_id, position, table_id, year) VALUES (?, ?, ?, ?)`,
				id, pos, tableID, c.Years[pos],
			)
			if err != nil {
				return fmt.Errorf("insert lineage %s[%d]: %w", id, pos, err)
			}
		}
	}

	return tx.Commit()
}

// #endregion save-chains

// #region load-chains
// LoadChains restores a chapter's chain set from the archive.
func (s *Store) LoadChains(chapter int) (map[string]*registry.Chain, error) {
	rows, err := s.db.Query(`SELECT chain_id, chain_json FROM chains WHERE chapter = ?`, chapter)
	if err != nil {
		return nil, fmt.Errorf("query chains: %w", err)
	}
	defer rows.Close()

	chains := make(map[string]*registry.Chain)
	for rows.Next() {
		var id, chainJSON string
		if err := rows.Scan(&id, &chainJSON); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		var c registry.Chain
		if err := json.Unmarshal([]byte(chainJSON), &c); err != nil {
			return nil, fmt.Errorf("unmarshal chain %s: %w", id, err)
		}
		chains[id] = &c
	}
	return chains, rows.Err()
}

// #endregion load-chains

// #region decision-log
// LogDecision appends one row to the match provenance log.
func (s *Store) LogDecision(d Decision) error {
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	var rationale interface{}
	if d.Rationale != "" {
		rationale = d.Rationale
	}
	_, err := s.db.Exec(
		`INSERT INTO decision_log (chapter, year, chain_id, table_id, similarity, tier, action, rationale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Chapter, d.Year, d.ChainID, d.TableID, d.Similarity, d.Tier, d.Action, rationale,
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Decisions returns the most recent decisions for a chapter.
func (s *Store) Decisions(chapter, limit int) ([]Decision, error) {
	rows, err := s.db.Query(
		`SELECT chapter, year, chain_id, table_id, similarity, tier, action, rationale, created_at
		 FROM decision_log WHERE chapter = ? ORDER BY id DESC LIMIT ?`, chapter, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var rationale sql.NullString
		var createdStr string
		if err := rows.Scan(&d.Chapter, &d.Year, &d.ChainID, &d.TableID, &d.Similarity, &d.Tier, &d.Action, &rationale, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if rationale.Valid {
			d.Rationale = rationale.String
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// #endregion decision-log

// #region equivalence-cache
// GetEquivalence looks up a cached equivalence verdict. Keys are
// normalized so either argument order hits.
func (s *Store) GetEquivalence(a, b string) (equivalent, found bool, err error) {
	ka, kb := orderKeys(a, b)
	var eq int
	err = s.db.QueryRow(
		`SELECT equivalent FROM equivalence_cache WHERE key_a = ? AND key_b = ?`, ka, kb,
	).Scan(&eq)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get equivalence: %w", err)
	}
	return eq != 0, true, nil
}

// PutEquivalence stores an equivalence verdict.
func (s *Store) PutEquivalence(a, b string, equivalent bool) error {
	ka, kb := orderKeys(a, b)
	eq := 0
	if equivalent {
		eq = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO equivalence_cache (key_a, key_b, equivalent, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key_a, key_b) DO UPDATE SET equivalent = excluded.equivalent`,
		ka, kb, eq, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put equivalence: %w", err)
	}
	return nil
}

func orderKeys(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// #endregion equivalence-cache
