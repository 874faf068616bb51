package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the per-profile chatr.db connection.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}

// OpenMigrated opens path and brings its schema up to date.
func OpenMigrated(path string) (*DB, MigrateResult, error) {
	db, err := Open(path)
	if err != nil {
		return nil, MigrateResult{}, err
	}
	res, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, res, err
	}
	return db, res, nil
}
