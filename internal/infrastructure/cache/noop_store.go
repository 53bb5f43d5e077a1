package cache

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// NoopStore is used when caching is disabled: every read misses
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopStore) Delete(context.Context, ...string) error { return nil }

func (NoopStore) DeleteMatching(context.Context, string) (int, error) { return 0, nil }

func (NoopStore) Close() error { return nil }

var _ shared.CacheStore = NoopStore{}
