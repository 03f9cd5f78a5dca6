// Package cache stores computed layouts and rendered charts.
//
// Entries are addressed by keys derived from the content hash of the
// pattern set and the options that shaped the result, so an edited pattern
// never reads a stale chart. Backends are interchangeable behind [Cache]:
//
//	FileCache   - one file per entry, for the CLI
//	BadgerCache - embedded key/value store, for long-running servers
//	RedisCache  - shared cache across server replicas
//	NullCache   - caching disabled
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind. Layouts depend only on content, so
// they live longer than rendered artifacts.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Close releases the backend.
	Close() error
}
