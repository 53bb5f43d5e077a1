package finance

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// PeriodStatus is the lifecycle state of a financial period
type PeriodStatus string

const (
	PeriodActive   PeriodStatus = "Active"
	PeriodInactive PeriodStatus = "Inactive"
)

// FinancialPeriod is a company's accounting cycle. At most one period per
// company is Active.
type FinancialPeriod struct {
	shared.CompanyEntity
	Name      string       `gorm:"type:varchar(255);not null"`
	StartDate time.Time    `gorm:"type:date;not null"`
	EndDate   time.Time    `gorm:"type:date;not null"`
	Status    PeriodStatus `gorm:"type:varchar(20);not null;default:'Inactive';index"`
	Currency  string       `gorm:"type:varchar(10)"`
	// Description is free text shown on reports
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FinancialPeriod) TableName() string {
	return "financial_periods"
}

// PeriodInput carries the editable fields of a period
type PeriodInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Currency    string
	Description string
	Activate    bool
}

// NewFinancialPeriod creates a period; it starts inactive unless in.Activate
// is set, in which case the caller must deactivate the others.
func NewFinancialPeriod(actor shared.Actor, in PeriodInput) (*FinancialPeriod, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Financial period name cannot be empty")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATES", "Start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, shared.NewValidationError("INVALID_DATES", "End date cannot be before start date")
	}
	p := &FinancialPeriod{
		CompanyEntity: shared.NewCompanyEntity(actor),
		Name:          name,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Status:        PeriodInactive,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		Description:   in.Description,
	}
	if in.Activate {
		p.Status = PeriodActive
	}
	return p, nil
}

// IsActive reports whether the period is the company's active one
func (p *FinancialPeriod) IsActive() bool {
	return p.Status == PeriodActive
}

// Activate marks the period active
func (p *FinancialPeriod) Activate() {
	p.Status = PeriodActive
	p.Touch()
}
