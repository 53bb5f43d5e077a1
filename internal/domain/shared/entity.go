package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CompanyEntity is a BaseEntity owned by a company (the tenant).
type CompanyEntity struct {
	BaseEntity
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// NewCompanyEntity creates a company-owned entity stamped with the actor.
func NewCompanyEntity(actor Actor) CompanyEntity {
	e := CompanyEntity{
		BaseEntity: NewBaseEntity(),
		CompanyID:  actor.CompanyID,
	}
	if actor.UserID != uuid.Nil {
		uid := actor.UserID
		e.CreatedBy = &uid
	}
	return e
}

// BelongsTo reports whether the entity is owned by the given company.
func (e *CompanyEntity) BelongsTo(companyID uuid.UUID) bool {
	return e.CompanyID == companyID
}

// Touch bumps the update timestamp.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
