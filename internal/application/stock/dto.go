package stock

import (
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryRequest carries the editable fields of a category
type CategoryRequest struct {
	Name            string
	Description     string
	Image           string
	Status          inventory.Status
	MeasurementUnit string
	ReorderLevel    decimal.Decimal
}

func (r CategoryRequest) input() inventory.CategoryInput {
	return inventory.CategoryInput{
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		Status:          r.Status,
		MeasurementUnit: r.MeasurementUnit,
		ReorderLevel:    r.ReorderLevel,
	}
}

// SubCategoryRequest carries the editable fields of a sub-category
type SubCategoryRequest struct {
	StockCategoryID uuid.UUID
	Name            string
	Description     string
	Image           string
	Status          inventory.Status
	MeasurementUnit string
	ReorderLevel    decimal.Decimal
}

func (r SubCategoryRequest) input() inventory.SubCategoryInput {
	return inventory.SubCategoryInput{
		StockCategoryID: r.StockCategoryID,
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		Status:          r.Status,
		MeasurementUnit: r.MeasurementUnit,
		ReorderLevel:    r.ReorderLevel,
	}
}

// ItemRequest carries the editable fields of an item. An empty SKU on
// create, or one shorter than two characters, is generated.
type ItemRequest struct {
	StockSubCategoryID uuid.UUID
	Name               string
	Description        string
	Image              string
	Barcode            string
	Gallery            []string
	SKU                string
	RegenerateSKU      bool
	BuyingPrice        decimal.Decimal
	SellingPrice       decimal.Decimal
	OriginalQuantity   decimal.Decimal
}

func (r ItemRequest) input() inventory.ItemInput {
	return inventory.ItemInput{
		Name:             r.Name,
		Description:      r.Description,
		Image:            r.Image,
		Barcode:          r.Barcode,
		Gallery:          r.Gallery,
		SKU:              r.SKU,
		RegenerateSKU:    r.RegenerateSKU,
		BuyingPrice:      r.BuyingPrice,
		SellingPrice:     r.SellingPrice,
		OriginalQuantity: r.OriginalQuantity,
	}
}

// ItemView is an item with its display projection
type ItemView struct {
	Item        *inventory.StockItem
	SubCategory *inventory.StockSubCategory
	// NameText is "name - sub-category (qty unit)"
	NameText string
	// BelowCost is set when the selling price is under the buying price
	BelowCost bool
}

// SubCategoryOption is one autocomplete hit
type SubCategoryOption struct {
	ID   uuid.UUID
	Text string
}

// ItemListFilter narrows ListItems
type ItemListFilter struct {
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
	Search        string
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}
