// Package cache provides short-lived key/value storage backed by process
// memory or Redis.
package cache

import (
	"context"
	"time"
)

// Store is a string key/value store with per-entry expiry
type Store interface {
	// Get returns the value and whether it was present and unexpired
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
