package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// lockRetryInterval is how often a blocked Obtain polls Redis
const lockRetryInterval = 50 * time.Millisecond

// RedisLocker implements shared.Locker with bsm/redislock. The lock expires
// after its TTL even if the holder dies.
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
}

// NewRedisLocker creates a locker over an existing Redis client
func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisLocker{client: redislock.New(client), keyPrefix: keyPrefix + "lock:"}
}

// Obtain retries until the lock is held or ttl has elapsed
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	waitCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, l.keyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockRetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", shared.ErrLockNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// expired before release; someone else may hold it now
			return nil
		}
		return err
	}, nil
}

// LocalLocker implements shared.Locker with per-key in-process mutexes
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Obtain waits for the key's slot until ctx is done or ttl has elapsed
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	s := l.acquireSlot(key)

	timer := time.NewTimer(ttl)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, ctx.Err()
	case <-timer.C:
		l.releaseSlot(key)
		return nil, fmt.Errorf("%w: %s", shared.ErrLockNotObtained, key)
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.releaseSlot(key)
		})
		return nil
	}, nil
}

func (l *LocalLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// NewLocker returns a Redis locker when a client is available, else a local one
func NewLocker(client *redis.Client, keyPrefix string) shared.Locker {
	if client == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(client, keyPrefix)
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*LocalLocker)(nil)
)
