// Package migrations has the embedded SQLite schema of the UI state store.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/stagewatch/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// SchemaVersion is the ui_state schema version the embedded migrations reach.
const SchemaVersion uint = 1

// Apply brings the ui_state schema of the database to SchemaVersion and returns
// the version the database is at. Databases already at the version are left
// untouched.
func Apply(ctx context.Context, db *sql.DB, logger log.Logger) (uint, error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}
	logger = logger.WithValues(log.Kv{"svc": "sqlite.Migrations"})

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return 0, fmt.Errorf("could not load embedded migrations: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warningf("Could not close migrations source: %s", err)
		}
	}()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("could not migrate ui_state schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("could not get ui_state schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("ui_state schema version %d is dirty", version)
	}

	logger.Debugf("UI state schema at version %d", version)
	return version, nil
}
