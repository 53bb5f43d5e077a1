package shared

import (
	"context"
	"errors"
	"time"
)

// CacheStore is a byte-valued key store with per-entry TTL backing the
// company-scoped read caches
type CacheStore interface {
	// Get returns the value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// DeleteMatching removes every key containing fragment and returns how
	// many were removed. An empty fragment removes all keys of the store.
	DeleteMatching(ctx context.Context, fragment string) (int, error)

	// Close closes the store and releases resources
	Close() error
}

// ErrLockNotObtained is returned when a lock stays held by someone else until
// the caller gives up
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker hands out short exclusive locks keyed by name
type Locker interface {
	// Obtain blocks until the lock is held, ctx is done or the wait budget is
	// spent. The returned func releases the lock.
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
