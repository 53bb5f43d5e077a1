package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names accepted by cache.backend
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// StoreFactory creates cache stores based on configuration
type StoreFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result is what CreateStore hands back: the store, and the Redis client
// when one is connected so that locks can share it
type Result struct {
	Store  shared.CacheStore
	Redis  *redis.Client
	Active string
}

// CreateStore builds the configured store. A disabled cache yields the no-op
// store; Redis falls back to memory when unreachable and fallback is allowed.
func (f *StoreFactory) CreateStore(ctx context.Context) (Result, error) {
	if !f.cacheConfig.Enabled || f.cacheConfig.Backend == BackendNone {
		f.logger.Info("cache disabled, using no-op store")
		return Result{Store: NoopStore{}, Active: BackendNone}, nil
	}

	if f.cacheConfig.Backend == BackendMemory {
		f.logger.Info("using in-memory cache store")
		return Result{Store: NewMemoryStore(time.Minute), Active: BackendMemory}, nil
	}

	store, err := NewRedisStore(ctx, f.redisConfig, f.cacheConfig.KeyPrefix)
	if err == nil {
		f.logger.Info("using Redis cache store", zap.String("addr", f.redisConfig.Addr()))
		return Result{Store: store, Redis: store.Client(), Active: BackendRedis}, nil
	}

	if !f.allowInMemoryFallback {
		return Result{}, fmt.Errorf("redis required for cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache store. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return Result{Store: NewMemoryStore(time.Minute), Active: BackendMemory}, nil
}
