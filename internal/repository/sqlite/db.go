// Package sqlite implements the repository interfaces against a single
// embedded SQLite database file — the "single local durable store" spec.md
// §6 calls for. modernc.org/sqlite is a pure-Go driver, so the binary
// needs no cgo toolchain to embed it.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	project_id   INTEGER PRIMARY KEY,
	project_name TEXT NOT NULL,
	devpost_link TEXT NOT NULL,
	table_num    TEXT NOT NULL,
	tracks       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assignments (
	judge_id  TEXT PRIMARY KEY,
	a         INTEGER NOT NULL,
	b         INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS logs (
	sequence  INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	judge_id  TEXT NOT NULL,
	pair_a    INTEGER NOT NULL DEFAULT 0,
	pair_b    INTEGER NOT NULL DEFAULT 0,
	winner    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshots (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence  INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	k         INTEGER NOT NULL,
	alpha     BLOB NOT NULL,
	frequency BLOB NOT NULL,
	rng       BLOB NOT NULL
);
`

// Connect opens (creating if necessary) the SQLite database at path and
// ensures its schema exists. modernc.org/sqlite serializes writers
// internally, but a single connection keeps the "single writer" model in
// spec.md §5 explicit rather than implicit in driver behavior.
func Connect(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}
