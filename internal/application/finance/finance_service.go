// Package finance manages financial periods, categories, manual records and
// the report projection built on top of the ledger's generated records.
package finance

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Service implements the financial operations of a company
type Service struct {
	scope     ledger.TransactionScope
	repos     ledger.Repositories
	owners    shared.OwnershipLookup
	cache     *companycache.Cache
	renderers map[string]Renderer
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache sets the company cache
func WithCache(c *companycache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithOwnershipLookup enables TENANT_MISMATCH detection for foreign categories
func WithOwnershipLookup(o shared.OwnershipLookup) Option {
	return func(s *Service) {
		s.owners = o
	}
}

// WithRenderers registers report exporters by their format
func WithRenderers(renderers ...Renderer) Option {
	return func(s *Service) {
		for _, r := range renderers {
			s.renderers[r.Format()] = r
		}
	}
}

// WithClock overrides time.Now for report ranges
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. repos must run outside any transaction.
func NewService(scope ledger.TransactionScope, repos ledger.Repositories, opts ...Option) *Service {
	s := &Service{
		scope:     scope,
		repos:     repos,
		renderers: make(map[string]Renderer),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) reference(ctx context.Context, actor shared.Actor, resource, table string, id uuid.UUID, err error) error {
	if !errors.Is(err, shared.ErrNotFound) || s.owners == nil {
		return err
	}
	owner, lookupErr := s.owners.OwnerOf(ctx, table, id)
	if lookupErr != nil {
		return err
	}
	if guardErr := actor.Guard(resource, owner); guardErr != nil {
		return guardErr
	}
	return err
}
