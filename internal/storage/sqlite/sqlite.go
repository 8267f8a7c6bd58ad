package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
	// TimeNow is used to set the update time of the values.
	TimeNow func() time.Time
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db      *sql.DB
	logger  log.Logger
	timeNow func() time.Time
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := migrations.Apply(ctx, db, cfg.Logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger, timeNow: cfg.TimeNow}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// GetValue retrieves a value by key.
func (r *Repository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM ui_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("key %s: %w", key, model.ErrNotFound)
		}
		return "", fmt.Errorf("could not query key: %w", err)
	}

	return value, nil
}

// SetValue creates or replaces a value.
func (r *Repository) SetValue(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO ui_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, key, value, r.timeNow().UTC().Unix())
	if err != nil {
		return fmt.Errorf("could not store key: %w", err)
	}

	r.logger.Debugf("Stored key in repository: %s", key)
	return nil
}

// ClearValue removes a value.
func (r *Repository) ClearValue(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ui_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("could not delete key: %w", err)
	}

	r.logger.Debugf("Cleared key from repository: %s", key)
	return nil
}
