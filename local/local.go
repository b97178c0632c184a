// Package local defines the in-process hot-tier store ReadThrough can put
// in front of the backend cache.
//
// Implementations MUST be safe for concurrent use and byte-for-byte
// transparent: Get must return exactly the []byte previously passed to Set
// for the same key, with no prepended metadata or re-encoding.
package local

import (
	"context"
	"time"
)

// Store is a minimal byte store with TTLs.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
