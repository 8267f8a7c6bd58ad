package storage

import (
	"context"
)

// Repository is the interface for the dashboard UI state persistence. Values are
// opaque strings stored under fixed keys.
type Repository interface {
	// GetValue returns the value of a key or model.ErrNotFound.
	GetValue(ctx context.Context, key string) (string, error)
	// SetValue creates or replaces the value of a key.
	SetValue(ctx context.Context, key, value string) error
	// ClearValue removes a key, missing keys are ignored.
	ClearValue(ctx context.Context, key string) error
}
