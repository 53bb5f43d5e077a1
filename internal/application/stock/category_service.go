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

// CreateCategory creates a stock category
func (s *Service) CreateCategory(ctx context.Context, actor shared.Actor, req CategoryRequest) (*inventory.StockCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	category, err := inventory.NewStockCategory(actor, req.input())
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryName(ctx, actor.CompanyID, category.Name, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.repos.Categories().Save(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return s.repos.Categories().FindByID(ctx, actor.CompanyID, category.ID)
}

// UpdateCategory edits a category and recomputes its aggregates
func (s *Service) UpdateCategory(ctx context.Context, actor shared.Actor, id uuid.UUID, req CategoryRequest) (*inventory.StockCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	category, err := s.repos.Categories().FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := category.Apply(req.input()); err != nil {
		return nil, err
	}
	if err := s.ensureCategoryName(ctx, actor.CompanyID, category.Name, category.ID); err != nil {
		return nil, err
	}
	period, err := s.optionalPeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if err := repos.Categories().Save(ctx, category); err != nil {
			return err
		}
		if _, err := s.recomputer.Category(ctx, repos, actor.CompanyID, category.ID, period); err != nil {
			return err
		}
		s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return s.repos.Categories().FindByID(ctx, actor.CompanyID, id)
}

// DeleteCategory deletes a category without sub-categories
func (s *Service) DeleteCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Categories().FindByIDForUpdate(ctx, actor.CompanyID, id); err != nil {
			return err
		}
		count, err := repos.SubCategories().CountByCategory(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDependencyError("CATEGORY_HAS_SUB_CATEGORIES", fmt.Sprintf(
				"Cannot delete stock category with existing sub-categories. Found %d sub-category(ies).", count))
		}
		return repos.Categories().Delete(ctx, actor.CompanyID, id)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return nil
}

// GetCategory returns one category
func (s *Service) GetCategory(ctx context.Context, actor shared.Actor, id uuid.UUID) (*inventory.StockCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return s.repos.Categories().FindByID(ctx, actor.CompanyID, id)
}

// ListCategories returns every category of the company ordered by name.
// The list is served from the company cache.
func (s *Service) ListCategories(ctx context.Context, actor shared.Actor) ([]inventory.StockCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return companycache.Remember(ctx, s.cache, companycache.StockCategoriesKey(actor.CompanyID), companycache.TTLLong,
		func(ctx context.Context) ([]inventory.StockCategory, error) {
			categories, _, err := s.repos.Categories().FindAll(ctx, actor.CompanyID, byName())
			return categories, err
		})
}

func (s *Service) ensureCategoryName(ctx context.Context, companyID uuid.UUID, name string, excludeID uuid.UUID) error {
	exists, err := s.repos.Categories().ExistsByName(ctx, companyID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewConflictError("DUPLICATE_CATEGORY", "A stock category with this name already exists")
	}
	return nil
}

// byName lists everything ordered by name
func byName() shared.Filter {
	return shared.Filter{OrderBy: "name", OrderDir: "asc"}
}
