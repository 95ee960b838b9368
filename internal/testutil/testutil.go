//go:build integration

// Package testutil provides helpers for integration tests that exercise
// the real SQLite-backed repositories against a throwaway database file
// instead of the in-memory fakes the unit tests use.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mhacks/dredd-judging/internal/repository/sqlite"
)

// Repos bundles every repository implementation backed by the same
// database handle, mirroring how cmd/server/main.go wires them together.
type Repos struct {
	DB          *sql.DB
	Entities    *sqlite.EntityRepo
	Assignments *sqlite.AssignmentRepo
	Logs        *sqlite.LogRepo
	Snapshots   *sqlite.SnapshotRepo
}

// SetupDB creates a fresh SQLite database under a temp directory, applies
// the schema via sqlite.Connect, and registers cleanup to close it. The
// temp directory is removed automatically by testing.T's own cleanup.
func SetupDB(t *testing.T) *Repos {
	t.Helper()

	path := filepath.Join(t.TempDir(), "judging.db")

	db, err := sqlite.Connect(path)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Repos{
		DB:          db,
		Entities:    sqlite.NewEntityRepo(db),
		Assignments: sqlite.NewAssignmentRepo(db),
		Logs:        sqlite.NewLogRepo(db),
		Snapshots:   sqlite.NewSnapshotRepo(db),
	}
}

// CleanupDB empties every table so a handle can be reused across cases.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range []string{"entities", "assignments", "logs", "snapshots"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("clear table %s: %v", table, err)
		}
	}
}
