package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	values map[string]string
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		values: make(map[string]string),
		logger: cfg.Logger,
	}, nil
}

// GetValue retrieves a value by key.
func (r *Repository) GetValue(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, model.ErrNotFound)
	}

	return v, nil
}

// SetValue stores a value.
func (r *Repository) SetValue(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	r.logger.Debugf("Stored key in repository: %s", key)

	return nil
}

// ClearValue removes a value.
func (r *Repository) ClearValue(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	r.logger.Debugf("Cleared key from repository: %s", key)

	return nil
}
