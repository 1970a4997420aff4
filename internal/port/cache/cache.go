// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. The scorer and
// reranker receive a Cache instance by injection; tests get isolation by
// handing each case its own instance or calling Clear.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Clear drops every entry. Used for test isolation and operator resets.
	Clear(ctx context.Context) error
}
