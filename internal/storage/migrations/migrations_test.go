package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	version, err := Version(db)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	tables := []string{"memories", "_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("migration count = %d, want 1", count)
	}
}

func TestVersion_EmptyDB(t *testing.T) {
	db := openTestDB(t)

	if err := ensureMigrationsTable(db); err != nil {
		t.Fatalf("ensure migrations table: %v", err)
	}

	version, err := Version(db)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0", version)
	}
}
