package finance

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordListFilter narrows ListRecords
type RecordListFilter struct {
	Type       finance.RecordType
	CategoryID *uuid.UUID
	PeriodID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Search     string
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// CreateRecord enters a manual income or expense in the active period
func (s *Service) CreateRecord(ctx context.Context, actor shared.Actor, in finance.RecordInput) (*finance.FinancialRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	period, err := s.ActivePeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	category, err := s.repos.FinancialCategories().FindByID(ctx, actor.CompanyID, in.FinancialCategoryID)
	if err != nil {
		err = s.reference(ctx, actor, "Financial category", finance.FinancialCategory{}.TableName(), in.FinancialCategoryID, err)
		if shared.KindOf(err) == shared.KindTenantMismatch {
			logger.L(ctx).Warn("Cross-company financial category rejected",
				zap.String("financial_category_id", in.FinancialCategoryID.String()))
		}
		return nil, err
	}
	record, err := finance.NewFinancialRecord(actor, category, period.ID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repos.FinancialRecords().Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord returns one financial record
func (s *Service) GetRecord(ctx context.Context, actor shared.Actor, id uuid.UUID) (*finance.FinancialRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return s.repos.FinancialRecords().FindByID(ctx, actor.CompanyID, id)
}

// ListRecords lists financial records, newest date first by default
func (s *Service) ListRecords(ctx context.Context, actor shared.Actor, f RecordListFilter) (shared.Paginated[finance.FinancialRecord], error) {
	if err := actor.Validate(); err != nil {
		return shared.Paginated[finance.FinancialRecord]{}, err
	}
	if f.Type != "" && !f.Type.IsValid() {
		return shared.Paginated[finance.FinancialRecord]{}, shared.NewValidationError("INVALID_RECORD_TYPE", "Type must be Income or Expense")
	}
	filter := shared.DefaultFilter()
	filter.OrderBy = "date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search

	records, total, err := s.repos.FinancialRecords().FindAll(ctx, actor.CompanyID, finance.RecordFilter{
		Filter:     filter,
		Type:       f.Type,
		CategoryID: f.CategoryID,
		PeriodID:   f.PeriodID,
		From:       f.From,
		To:         f.To,
	})
	if err != nil {
		return shared.Paginated[finance.FinancialRecord]{}, err
	}
	return shared.NewPaginated(records, total, filter.Page, filter.PageSize), nil
}
