package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOwnershipLookup implements shared.OwnershipLookup
type GormOwnershipLookup struct {
	db *gorm.DB
}

// NewGormOwnershipLookup creates a new GormOwnershipLookup
func NewGormOwnershipLookup(db *gorm.DB) *GormOwnershipLookup {
	return &GormOwnershipLookup{db: db}
}

// OwnerOf returns the company owning the row of table
func (l *GormOwnershipLookup) OwnerOf(ctx context.Context, table string, id uuid.UUID) (uuid.UUID, error) {
	owner, found, err := company.OwnerOf(l.db.WithContext(ctx), table, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, shared.ErrNotFound
	}
	return owner, nil
}

var _ shared.OwnershipLookup = (*GormOwnershipLookup)(nil)
