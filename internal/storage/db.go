// Package storage provides the sqlite-backed durable memory store.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"castpilot/internal/config"
	"castpilot/internal/storage/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps the database connection.
type DB struct {
	*sql.DB
	path string
}

// Open opens the database at path, creating parent directories and
// applying pending migrations.
func Open(path string) (*DB, error) {
	expandedPath, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them: WAL
	// plus a busy timeout lets multiple agent loops share the store,
	// and database/sql opens connections lazily behind our back.
	dsn := "file:" + expandedPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db, path: expandedPath}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
