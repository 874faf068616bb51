package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matheus3301/chatr/internal/store/migrations"
)

// MigrateResult reports the schema version before and after Migrate.
type MigrateResult struct {
	From    uint
	Version uint
	Changed bool
}

// ErrDirtySchema is returned when a previous migration stopped halfway.
var ErrDirtySchema = errors.New("credentials schema is dirty")

// Migrate brings the credentials schema up to the embedded version.
func (db *DB) Migrate() (MigrateResult, error) {
	var res MigrateResult

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return res, fmt.Errorf("migration source: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return res, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return res, fmt.Errorf("migration instance: %w", err)
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return res, fmt.Errorf("migration version: %w", err)
	case dirty:
		return res, fmt.Errorf("version %d: %w", from, ErrDirtySchema)
	}
	res.From = from

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("migration up: %w", err)
	}
	to, _, err := m.Version()
	if err != nil {
		return res, fmt.Errorf("migration version: %w", err)
	}
	res.Version = to
	res.Changed = to != from
	return res, nil
}
