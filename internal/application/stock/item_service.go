package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AggregateTypeStockItem is the audit model type of items
const AggregateTypeStockItem = "StockItem"

// CreateItem creates an item in the active period. A missing or too short
// SKU is generated as "{year}-{subCategoryId}-{serial}" under a per
// sub-category lock, retrying with the next serial on a unique conflict.
func (s *Service) CreateItem(ctx context.Context, actor shared.Actor, req ItemRequest) (*ItemView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "CreateItem")
	defer span.End()

	view, err := s.createItem(ctx, actor, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrItemID, view.Item.ID.String(), telemetry.SpanAttrSKU, view.Item.SKU)
	return view, nil
}

func (s *Service) createItem(ctx context.Context, actor shared.Actor, req ItemRequest) (*ItemView, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	period, err := s.periods.ActivePeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	sub, err := s.resolveSubCategory(ctx, actor, req.StockSubCategoryID)
	if err != nil {
		return nil, err
	}
	item, belowCost, err := inventory.NewStockItem(actor, sub, period.ID, req.input())
	if err != nil {
		return nil, err
	}
	warnBelowCost(ctx, item, belowCost)

	write := func(repos ledger.Repositories) error {
		if _, err := repos.SubCategories().FindByIDForUpdate(ctx, actor.CompanyID, item.StockSubCategoryID); err != nil {
			return err
		}
		if err := repos.Items().Create(ctx, item); err != nil {
			return err
		}
		return s.afterItemWrite(ctx, repos, actor, period, item, nil, audit.ActionCreated, nil)
	}
	if item.NeedsSKU() || req.RegenerateSKU {
		err = s.withGeneratedSKU(ctx, actor, item, write)
	} else {
		err = s.scope.Execute(ctx, write)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	logger.L(ctx).Info("Stock item created",
		zap.String("stock_item_id", item.ID.String()),
		zap.String("sku", item.SKU))

	view, err := s.GetItem(ctx, actor, item.ID)
	if err != nil {
		return nil, err
	}
	view.BelowCost = belowCost
	return view, nil
}

// UpdateItem edits an item. current_quantity is never touched; moving the
// item to another sub-category recomputes both branches.
func (s *Service) UpdateItem(ctx context.Context, actor shared.Actor, id uuid.UUID, req ItemRequest) (*ItemView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "UpdateItem")
	defer span.End()

	view, err := s.updateItem(ctx, actor, id, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return view, nil
}

func (s *Service) updateItem(ctx context.Context, actor shared.Actor, id uuid.UUID, req ItemRequest) (*ItemView, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	item, err := s.repos.Items().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	before := *item
	if req.StockSubCategoryID == uuid.Nil {
		req.StockSubCategoryID = item.StockSubCategoryID
	}
	if req.SKU == "" && !req.RegenerateSKU {
		req.SKU = item.SKU
	}
	sub, err := s.resolveSubCategory(ctx, actor, req.StockSubCategoryID)
	if err != nil {
		return nil, err
	}
	belowCost, err := item.Apply(actor, sub, req.input())
	if err != nil {
		return nil, err
	}
	warnBelowCost(ctx, item, belowCost)
	period, err := s.optionalPeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	write := func(repos ledger.Repositories) error {
		if item.StockSubCategoryID != before.StockSubCategoryID {
			if _, err := repos.SubCategories().FindByIDForUpdate(ctx, actor.CompanyID, item.StockSubCategoryID); err != nil {
				return err
			}
		}
		if err := repos.Items().Update(ctx, item); err != nil {
			return err
		}
		return s.afterItemWrite(ctx, repos, actor, period, item, &before, audit.ActionUpdated, audit.Snapshot(&before))
	}
	if item.NeedsSKU() || req.RegenerateSKU {
		err = s.withGeneratedSKU(ctx, actor, item, write)
	} else {
		err = s.scope.Execute(ctx, write)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	view, err := s.GetItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view.BelowCost = belowCost
	return view, nil
}

// DeleteItem deletes an item that has no stock left and no stock records
func (s *Service) DeleteItem(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	period, err := s.optionalPeriod(ctx, actor.CompanyID)
	if err != nil {
		return err
	}

	// guards run under the item row lock that ledger writes also take
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		item, err := repos.Items().FindByIDForUpdate(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		unit := ""
		sub, err := repos.SubCategories().FindByID(ctx, actor.CompanyID, item.StockSubCategoryID)
		if err == nil {
			unit = sub.MeasurementUnit
		} else if !isNotFound(err) {
			return err
		}
		records, err := repos.Records().CountByItem(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if err := item.CanDelete(records, unit); err != nil {
			return err
		}

		if err := repos.Items().Delete(ctx, actor.CompanyID, id); err != nil {
			return err
		}
		if _, _, err := s.recomputer.Cascade(ctx, repos, actor.CompanyID, item.StockSubCategoryID, item.StockCategoryID, period); err != nil {
			return err
		}
		entry := audit.NewLog(ctx, actor.CompanyID, actor.UserID, AggregateTypeStockItem, item.ID,
			audit.ActionDeleted, audit.Snapshot(item), nil)
		if err := repos.AuditLogs().Append(ctx, entry); err != nil {
			return err
		}
		s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return nil
}

// GetItem returns an item with its display projection
func (s *Service) GetItem(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ItemView, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	item, err := s.repos.Items().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	sub, err := s.repos.SubCategories().FindByID(ctx, actor.CompanyID, item.StockSubCategoryID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	return newItemView(item, sub), nil
}

// ListItems lists the company's items
func (s *Service) ListItems(ctx context.Context, actor shared.Actor, f ItemListFilter) (shared.Paginated[ItemView], error) {
	if err := actor.Validate(); err != nil {
		return shared.Paginated[ItemView]{}, err
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

	items, total, err := s.repos.Items().FindAll(ctx, actor.CompanyID, inventory.ItemFilter{
		Filter:        filter,
		CategoryID:    f.CategoryID,
		SubCategoryID: f.SubCategoryID,
	})
	if err != nil {
		return shared.Paginated[ItemView]{}, err
	}

	subs := make(map[uuid.UUID]*inventory.StockSubCategory)
	views := make([]ItemView, 0, len(items))
	for i := range items {
		sub, ok := subs[items[i].StockSubCategoryID]
		if !ok {
			sub, err = s.repos.SubCategories().FindByID(ctx, actor.CompanyID, items[i].StockSubCategoryID)
			if err != nil && !isNotFound(err) {
				return shared.Paginated[ItemView]{}, err
			}
			subs[items[i].StockSubCategoryID] = sub
		}
		views = append(views, *newItemView(&items[i], sub))
	}
	return shared.NewPaginated(views, total, filter.Page, filter.PageSize), nil
}

// afterItemWrite recomputes the touched branches, appends the audit entry and
// invalidates the hierarchy cache inside the unit of work
func (s *Service) afterItemWrite(ctx context.Context, repos ledger.Repositories, actor shared.Actor, period *finance.FinancialPeriod, item, before *inventory.StockItem, action audit.Action, oldValues audit.Values) error {
	if _, _, err := s.recomputer.Cascade(ctx, repos, actor.CompanyID, item.StockSubCategoryID, item.StockCategoryID, period); err != nil {
		return err
	}
	if before != nil && before.StockSubCategoryID != item.StockSubCategoryID {
		if _, _, err := s.recomputer.Cascade(ctx, repos, actor.CompanyID, before.StockSubCategoryID, before.StockCategoryID, period); err != nil {
			return err
		}
	}

	newValues := audit.Snapshot(item)
	if action == audit.ActionUpdated {
		newValues = audit.Diff(oldValues, newValues)
	}
	entry := audit.NewLog(ctx, actor.CompanyID, actor.UserID, AggregateTypeStockItem, item.ID, action, oldValues, newValues)
	if err := repos.AuditLogs().Append(ctx, entry); err != nil {
		return err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return nil
}

// withGeneratedSKU holds the sub-category's SKU lock and runs write with
// serial count+1, bumping the serial after each unique conflict
func (s *Service) withGeneratedSKU(ctx context.Context, actor shared.Actor, item *inventory.StockItem, write func(ledger.Repositories) error) error {
	lockKey := fmt.Sprintf("sku:%s:%s", actor.CompanyID, item.StockSubCategoryID)
	release, err := s.locker.Obtain(ctx, lockKey, s.skuLockTTL)
	if err != nil {
		return fmt.Errorf("sku generation: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.L(ctx).Warn("Failed to release SKU lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	year := s.now().Year()
	for attempt := 0; attempt < s.skuMaxAttempts; attempt++ {
		err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
			count, err := repos.Items().CountBySubCategory(ctx, actor.CompanyID, item.StockSubCategoryID)
			if err != nil {
				return err
			}
			item.SKU = inventory.FormatSKU(year, item.StockSubCategoryID, count+1+int64(attempt))
			return write(repos)
		})
		if !errors.Is(err, shared.ErrConflict) {
			return err
		}
		logger.L(ctx).Warn("Generated SKU already taken, retrying",
			zap.String("sku", item.SKU), zap.Int("attempt", attempt+1))
	}
	return shared.NewConflictError("SKU_GENERATION_FAILED",
		fmt.Sprintf("Could not generate a unique SKU after %d attempts", s.skuMaxAttempts))
}

func (s *Service) resolveSubCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) (*inventory.StockSubCategory, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUB_CATEGORY", "Invalid stock sub-category")
	}
	sub, err := s.repos.SubCategories().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, s.reference(ctx, actor, "Stock sub-category", inventory.StockSubCategory{}.TableName(), id, err)
	}
	return sub, nil
}

func newItemView(item *inventory.StockItem, sub *inventory.StockSubCategory) *ItemView {
	view := &ItemView{Item: item, SubCategory: sub}
	if sub != nil {
		view.NameText = item.DisplayName(sub.Name, sub.MeasurementUnit)
	} else {
		view.NameText = item.DisplayName("", "")
	}
	return view
}

func warnBelowCost(ctx context.Context, item *inventory.StockItem, belowCost bool) {
	if !belowCost {
		return
	}
	logger.L(ctx).Warn("Selling price is lower than buying price",
		zap.String("item", item.Name),
		zap.String("buying_price", item.BuyingPrice.String()),
		zap.String("selling_price", item.SellingPrice.String()))
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
