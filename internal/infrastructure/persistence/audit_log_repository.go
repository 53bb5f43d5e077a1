package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *audit.Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByModel lists the entries of one model, oldest first
func (r *GormAuditLogRepository) FindByModel(ctx context.Context, companyID uuid.UUID, modelType string, modelID uuid.UUID) ([]audit.Log, error) {
	var logs []audit.Log
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("model_type = ? AND model_id = ?", modelType, modelID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
