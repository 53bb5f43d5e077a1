package stock

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SearchLimit caps autocomplete results
const SearchLimit = 20

// CreateSubCategory creates a sub-category under a category of the company
func (s *Service) CreateSubCategory(ctx context.Context, actor shared.Actor, req SubCategoryRequest) (*inventory.StockSubCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, actor, req.StockCategoryID)
	if err != nil {
		return nil, err
	}
	sub, err := inventory.NewStockSubCategory(actor, category, req.input())
	if err != nil {
		return nil, err
	}
	if err := s.ensureSubCategoryName(ctx, actor.CompanyID, category.ID, sub.Name, uuid.Nil); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Categories().FindByIDForUpdate(ctx, actor.CompanyID, category.ID); err != nil {
			return err
		}
		return repos.SubCategories().Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return s.repos.SubCategories().FindByID(ctx, actor.CompanyID, sub.ID)
}

// UpdateSubCategory edits a sub-category. Moving it to another category
// recomputes both categories.
func (s *Service) UpdateSubCategory(ctx context.Context, actor shared.Actor, id uuid.UUID, req SubCategoryRequest) (*inventory.StockSubCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	sub, err := s.repos.SubCategories().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	previousCategoryID := sub.StockCategoryID
	if req.StockCategoryID == uuid.Nil {
		req.StockCategoryID = previousCategoryID
	}
	category, err := s.resolveCategory(ctx, actor, req.StockCategoryID)
	if err != nil {
		return nil, err
	}
	if err := sub.Apply(actor, category, req.input()); err != nil {
		return nil, err
	}
	if err := s.ensureSubCategoryName(ctx, actor.CompanyID, category.ID, sub.Name, sub.ID); err != nil {
		return nil, err
	}
	period, err := s.optionalPeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if previousCategoryID != sub.StockCategoryID {
			if _, err := repos.Categories().FindByIDForUpdate(ctx, actor.CompanyID, sub.StockCategoryID); err != nil {
				return err
			}
		}
		if err := repos.SubCategories().Save(ctx, sub); err != nil {
			return err
		}
		if _, _, err := s.recomputer.Cascade(ctx, repos, actor.CompanyID, sub.ID, sub.StockCategoryID, period); err != nil {
			return err
		}
		if previousCategoryID != sub.StockCategoryID {
			if _, err := s.recomputer.Category(ctx, repos, actor.CompanyID, previousCategoryID, period); err != nil {
				return err
			}
		}
		s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return s.repos.SubCategories().FindByID(ctx, actor.CompanyID, id)
}

// DeleteSubCategory deletes a sub-category without items
func (s *Service) DeleteSubCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	period, err := s.optionalPeriod(ctx, actor.CompanyID)
	if err != nil {
		return err
	}

	// item writes lock the sub-category row first, so the count holds until commit
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		sub, err := repos.SubCategories().FindByIDForUpdate(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		count, err := repos.Items().CountBySubCategory(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDependencyError("SUB_CATEGORY_HAS_ITEMS", fmt.Sprintf(
				"Cannot delete stock sub-category with existing items. Found %d item(s).", count))
		}
		if err := repos.SubCategories().Delete(ctx, actor.CompanyID, id); err != nil {
			return err
		}
		if _, err := s.recomputer.Category(ctx, repos, actor.CompanyID, sub.StockCategoryID, period); err != nil && !isNotFound(err) {
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

// GetSubCategory returns one sub-category
func (s *Service) GetSubCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) (*inventory.StockSubCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return s.repos.SubCategories().FindByID(ctx, actor.CompanyID, id)
}

// ListSubCategories returns the company's sub-categories ordered by name,
// optionally of one category. Served from the company cache.
func (s *Service) ListSubCategories(ctx context.Context, actor shared.Actor, categoryID *uuid.UUID) ([]inventory.StockSubCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return companycache.Remember(ctx, s.cache, companycache.StockSubCategoriesKey(actor.CompanyID, categoryID), companycache.TTLLong,
		func(ctx context.Context) ([]inventory.StockSubCategory, error) {
			subs, _, err := s.repos.SubCategories().FindAll(ctx, actor.CompanyID, categoryID, byName())
			return subs, err
		})
}

// SearchSubCategories is the autocomplete lookup: case-insensitive name
// match, at most SearchLimit hits labelled "name (unit)"
func (s *Service) SearchSubCategories(ctx context.Context, actor shared.Actor, query string) ([]SubCategoryOption, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	subs, err := s.repos.SubCategories().Search(ctx, actor.CompanyID, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	options := make([]SubCategoryOption, 0, len(subs))
	for i := range subs {
		options = append(options, SubCategoryOption{ID: subs[i].ID, Text: subs[i].SearchText()})
	}
	return options, nil
}

// WarmUp preloads the category list and the all-categories sub-category list
func (s *Service) WarmUp(ctx context.Context, companyID uuid.UUID) error {
	actor := shared.NewActor(uuid.Nil, companyID)
	if _, err := s.ListCategories(ctx, actor); err != nil {
		return err
	}
	_, err := s.ListSubCategories(ctx, actor, nil)
	return err
}

func (s *Service) resolveCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) (*inventory.StockCategory, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CATEGORY", "Stock category is required")
	}
	category, err := s.repos.Categories().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, s.reference(ctx, actor, "Stock category", inventory.StockCategory{}.TableName(), id, err)
	}
	return category, nil
}

func (s *Service) ensureSubCategoryName(ctx context.Context, companyID, categoryID uuid.UUID, name string, excludeID uuid.UUID) error {
	exists, err := s.repos.SubCategories().ExistsByName(ctx, companyID, categoryID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewConflictError("DUPLICATE_SUB_CATEGORY", "A sub-category with this name already exists in the category")
	}
	return nil
}

var _ companycache.WarmUpSource = (*Service)(nil)
