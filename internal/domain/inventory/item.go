package inventory

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is a concrete stocked article.
// CurrentQuantity is set from OriginalQuantity on creation; after that only the
// ledger engine changes it.
type StockItem struct {
	shared.CompanyEntity
	StockCategoryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockSubCategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	FinancialPeriodID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name               string          `gorm:"type:varchar(255);not null"`
	Description        string          `gorm:"type:text"`
	Image              string          `gorm:"type:varchar(500)"`
	Barcode            string          `gorm:"type:varchar(100)"`
	Gallery            StringList      `gorm:"type:text"`
	SKU                string          `gorm:"column:sku;type:varchar(100);not null"`
	BuyingPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OriginalQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// ItemInput carries the user-editable fields of an item
type ItemInput struct {
	Name             string
	Description      string
	Image            string
	Barcode          string
	Gallery          []string
	SKU              string
	RegenerateSKU    bool
	BuyingPrice      decimal.Decimal
	SellingPrice     decimal.Decimal
	OriginalQuantity decimal.Decimal
}

// NewStockItem creates an item under the given sub-category in the given
// financial period. The returned flag is true when the selling price is lower
// than the buying price, which is allowed but worth a warning.
func NewStockItem(actor shared.Actor, sub *StockSubCategory, periodID uuid.UUID, in ItemInput) (*StockItem, bool, error) {
	item := &StockItem{
		CompanyEntity:   shared.NewCompanyEntity(actor),
		CurrentQuantity: decimal.Zero,
	}
	belowCost, err := item.Apply(actor, sub, in)
	if err != nil {
		return nil, false, err
	}
	if periodID == uuid.Nil {
		return nil, false, shared.ErrNoActivePeriod
	}
	item.FinancialPeriodID = periodID
	item.CurrentQuantity = item.OriginalQuantity
	return item, belowCost, nil
}

// Apply validates and copies editable fields. It never touches CurrentQuantity.
func (i *StockItem) Apply(actor shared.Actor, sub *StockSubCategory, in ItemInput) (bool, error) {
	if sub == nil {
		return false, shared.NewValidationError("INVALID_SUB_CATEGORY", "Invalid stock sub-category")
	}
	if err := actor.Guard("Stock sub-category", sub.CompanyID); err != nil {
		return false, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return false, shared.NewValidationError("INVALID_NAME", "Item name cannot be empty")
	}
	if in.BuyingPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return false, shared.NewValidationError("INVALID_PRICE", "Prices cannot be negative")
	}
	if in.OriginalQuantity.IsNegative() {
		return false, shared.NewValidationError("INVALID_QUANTITY", "Original quantity cannot be negative")
	}
	i.StockSubCategoryID = sub.ID
	i.StockCategoryID = sub.StockCategoryID
	i.Name = name
	i.Description = in.Description
	i.Image = in.Image
	i.Barcode = in.Barcode
	i.Gallery = StringList(in.Gallery)
	i.SKU = strings.TrimSpace(in.SKU)
	i.BuyingPrice = in.BuyingPrice
	i.SellingPrice = in.SellingPrice
	i.OriginalQuantity = in.OriginalQuantity
	i.Touch()
	return in.SellingPrice.LessThan(in.BuyingPrice), nil
}

// NeedsSKU reports whether a SKU has to be generated for the item
func (i *StockItem) NeedsSKU() bool {
	return NeedsGeneratedSKU(i.SKU)
}

// CanDelete checks the deletion guards. recordCount is the number of stock
// records still referencing the item.
func (i *StockItem) CanDelete(recordCount int64, unit string) error {
	if recordCount > 0 {
		return shared.NewDependencyError("ITEM_HAS_RECORDS", fmt.Sprintf(
			"Cannot delete stock item with existing stock records. Found %d record(s). Please delete the stock records first.", recordCount))
	}
	if i.CurrentQuantity.IsPositive() {
		return shared.NewDependencyError("ITEM_HAS_STOCK", fmt.Sprintf(
			"Cannot delete stock item with remaining stock. Current quantity: %s %s", i.CurrentQuantity.String(), unit))
	}
	return nil
}

// DisplayName renders "name - sub-category (qty unit)"
func (i *StockItem) DisplayName(subCategoryName, unit string) string {
	label := i.Name
	if subCategoryName != "" {
		label += " - " + subCategoryName
	}
	qty := i.CurrentQuantity.String()
	if unit != "" {
		qty += " " + unit
	}
	return fmt.Sprintf("%s (%s)", label, qty)
}

// StringList is a list of strings stored as a JSON array
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for StringList")
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
