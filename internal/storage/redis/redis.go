package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

const defaultKeyPrefix = "stagewatch:ui:"

// RepositoryConfig is the configuration for the Redis repository.
type RepositoryConfig struct {
	// Client is the Redis client, if nil one is created using Addr and closed
	// by Repository.Close. An injected client is owned by the caller.
	Client redis.Cmdable
	Addr   string
	// KeyPrefix namespaces the keys so multiple dashboards can share a Redis.
	KeyPrefix string
	Logger    log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Client == nil && c.Addr == "" {
		return fmt.Errorf("redis client or address is required")
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultKeyPrefix
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Redis"})
	return nil
}

// Repository is a Redis implementation of storage.Repository, useful to share the
// dashboard state between multiple dashboard instances.
type Repository struct {
	client redis.Cmdable
	owned  *redis.Client
	prefix string
	logger log.Logger
}

// NewRepository creates a new Redis repository and checks the connection.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Repository{client: cfg.Client, prefix: cfg.KeyPrefix, logger: cfg.Logger}
	if r.client == nil {
		r.owned = redis.NewClient(&redis.Options{Addr: cfg.Addr})
		r.client = r.owned
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return r, nil
}

// Close closes the Redis client created by the repository, injected clients are
// left open.
func (r *Repository) Close() error {
	if r.owned == nil {
		return nil
	}
	return r.owned.Close()
}

func (r *Repository) key(k string) string { return r.prefix + k }

// GetValue retrieves a value by key.
func (r *Repository) GetValue(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("key %s: %w", key, model.ErrNotFound)
		}
		return "", fmt.Errorf("could not get key: %w", err)
	}

	return v, nil
}

// SetValue creates or replaces a value, values never expire.
func (r *Repository) SetValue(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required: %w", model.ErrNotValid)
	}

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("could not set key: %w", err)
	}

	r.logger.Debugf("Stored key in repository: %s", key)
	return nil
}

// ClearValue removes a value.
func (r *Repository) ClearValue(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("could not delete key: %w", err)
	}

	r.logger.Debugf("Cleared key from repository: %s", key)
	return nil
}
