package ledger

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// GetRecord returns one stock record of the actor's company
func (e *Engine) GetRecord(ctx context.Context, actor shared.Actor, id uuid.UUID) (*inventory.StockRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return e.repos.Records().FindByID(ctx, actor.CompanyID, id)
}

// ListRecords lists stock records, newest first by default
func (e *Engine) ListRecords(ctx context.Context, actor shared.Actor, f RecordListFilter) (shared.Paginated[inventory.StockRecord], error) {
	if err := actor.Validate(); err != nil {
		return shared.Paginated[inventory.StockRecord]{}, err
	}

	filter := shared.DefaultFilter()
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

	records, total, err := e.repos.Records().FindAll(ctx, actor.CompanyID, inventory.RecordFilter{
		Filter:        filter,
		ItemID:        f.ItemID,
		SubCategoryID: f.SubCategoryID,
		CategoryID:    f.CategoryID,
		Type:          f.Type,
		From:          f.From,
		To:            f.To,
	})
	if err != nil {
		return shared.Paginated[inventory.StockRecord]{}, err
	}
	return shared.NewPaginated(records, total, filter.Page, filter.PageSize), nil
}
