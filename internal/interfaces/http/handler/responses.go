package handler

import (
	"time"

	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryResponse is a stock category on the wire
type CategoryResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	Status          string          `json:"status"`
	MeasurementUnit string          `json:"measurement_unit"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	inventory.Totals
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubCategoryResponse is a stock sub-category on the wire
type SubCategoryResponse struct {
	ID              uuid.UUID       `json:"id"`
	StockCategoryID uuid.UUID       `json:"stock_category_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	Status          string          `json:"status"`
	MeasurementUnit string          `json:"measurement_unit"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	InStock         string          `json:"in_stock"`
	inventory.Totals
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemResponse is a stock item with its display projection
type ItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	StockCategoryID    uuid.UUID       `json:"stock_category_id"`
	StockSubCategoryID uuid.UUID       `json:"stock_sub_category_id"`
	FinancialPeriodID  uuid.UUID       `json:"financial_period_id"`
	Name               string          `json:"name"`
	NameText           string          `json:"name_text,omitempty"`
	Description        string          `json:"description"`
	Image              string          `json:"image"`
	Barcode            string          `json:"barcode"`
	Gallery            []string        `json:"gallery"`
	SKU                string          `json:"sku"`
	BuyingPrice        decimal.Decimal `json:"buying_price"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	OriginalQuantity   decimal.Decimal `json:"original_quantity"`
	CurrentQuantity    decimal.Decimal `json:"current_quantity"`
	BelowCost          bool            `json:"below_cost,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// RecordResponse is a stock record on the wire
type RecordResponse struct {
	ID                 uuid.UUID       `json:"id"`
	StockItemID        uuid.UUID       `json:"stock_item_id"`
	StockCategoryID    uuid.UUID       `json:"stock_category_id"`
	StockSubCategoryID uuid.UUID       `json:"stock_sub_category_id"`
	FinancialPeriodID  uuid.UUID       `json:"financial_period_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	MeasurementUnit    string          `json:"measurement_unit"`
	Type               string          `json:"type"`
	Quantity           decimal.Decimal `json:"quantity"`
	BuyingPrice        decimal.Decimal `json:"buying_price"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	Profit             decimal.Decimal `json:"profit"`
	Date               string          `json:"date"`
	Description        string          `json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TransactionResponse answers a created stock movement
type TransactionResponse struct {
	Record          RecordResponse           `json:"record"`
	Item            *ItemResponse            `json:"item,omitempty"`
	SubCategory     *SubCategoryResponse     `json:"sub_category,omitempty"`
	FinancialRecord *FinancialRecordResponse `json:"financial_record,omitempty"`
}

// DeleteTransactionResponse answers a deleted stock movement
type DeleteTransactionResponse struct {
	Record      RecordResponse       `json:"record"`
	Reversed    bool                 `json:"reversed"`
	Item        *ItemResponse        `json:"item,omitempty"`
	SubCategory *SubCategoryResponse `json:"sub_category,omitempty"`
}

// PeriodResponse is a financial period on the wire
type PeriodResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// FinancialCategoryResponse is a financial category on the wire
type FinancialCategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// FinancialRecordResponse is a financial record on the wire
type FinancialRecordResponse struct {
	ID                  uuid.UUID       `json:"id"`
	FinancialCategoryID uuid.UUID       `json:"financial_category_id"`
	FinancialPeriodID   uuid.UUID       `json:"financial_period_id"`
	StockRecordID       *uuid.UUID      `json:"stock_record_id,omitempty"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Quantity            decimal.Decimal `json:"quantity"`
	PaymentMethod       string          `json:"payment_method"`
	Date                string          `json:"date"`
	Description         string          `json:"description"`
	CreatedAt           time.Time       `json:"created_at"`
}

func toCategoryResponse(c *inventory.StockCategory) CategoryResponse {
	return CategoryResponse{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Image:           c.Image,
		Status:          string(c.Status),
		MeasurementUnit: c.MeasurementUnit,
		ReorderLevel:    c.ReorderLevel,
		Totals:          c.Totals,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toSubCategoryResponse(s *inventory.StockSubCategory) *SubCategoryResponse {
	if s == nil {
		return nil
	}
	return &SubCategoryResponse{
		ID:              s.ID,
		StockCategoryID: s.StockCategoryID,
		Name:            s.Name,
		Description:     s.Description,
		Image:           s.Image,
		Status:          string(s.Status),
		MeasurementUnit: s.MeasurementUnit,
		ReorderLevel:    s.ReorderLevel,
		InStock:         s.InStock,
		Totals:          s.Totals,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toItemResponse(i *inventory.StockItem) *ItemResponse {
	if i == nil {
		return nil
	}
	gallery := []string(i.Gallery)
	if gallery == nil {
		gallery = []string{}
	}
	return &ItemResponse{
		ID:                 i.ID,
		StockCategoryID:    i.StockCategoryID,
		StockSubCategoryID: i.StockSubCategoryID,
		FinancialPeriodID:  i.FinancialPeriodID,
		Name:               i.Name,
		Description:        i.Description,
		Image:              i.Image,
		Barcode:            i.Barcode,
		Gallery:            gallery,
		SKU:                i.SKU,
		BuyingPrice:        i.BuyingPrice,
		SellingPrice:       i.SellingPrice,
		OriginalQuantity:   i.OriginalQuantity,
		CurrentQuantity:    i.CurrentQuantity,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func toItemViewResponse(v *stock.ItemView) *ItemResponse {
	resp := toItemResponse(v.Item)
	resp.NameText = v.NameText
	resp.BelowCost = v.BelowCost
	return resp
}

func toRecordResponse(r *inventory.StockRecord) RecordResponse {
	return RecordResponse{
		ID:                 r.ID,
		StockItemID:        r.StockItemID,
		StockCategoryID:    r.StockCategoryID,
		StockSubCategoryID: r.StockSubCategoryID,
		FinancialPeriodID:  r.FinancialPeriodID,
		SKU:                r.SKU,
		Name:               r.Name,
		MeasurementUnit:    r.MeasurementUnit,
		Type:               string(r.Type),
		Quantity:           r.Quantity,
		BuyingPrice:        r.BuyingPrice,
		SellingPrice:       r.SellingPrice,
		TotalSales:         r.TotalSales,
		Profit:             r.Profit,
		Date:               r.Date.Format(dateLayout),
		Description:        r.Description,
		CreatedAt:          r.CreatedAt,
	}
}

func toTransactionResponse(res *ledger.TransactionResult) TransactionResponse {
	resp := TransactionResponse{
		Record:      toRecordResponse(res.Record),
		Item:        toItemResponse(res.Item),
		SubCategory: toSubCategoryResponse(res.SubCategory),
	}
	if res.FinancialRecord != nil {
		fr := toFinancialRecordResponse(res.FinancialRecord)
		resp.FinancialRecord = &fr
	}
	return resp
}

func toDeleteTransactionResponse(res *ledger.DeleteResult) DeleteTransactionResponse {
	return DeleteTransactionResponse{
		Record:      toRecordResponse(res.Record),
		Reversed:    res.Reversed,
		Item:        toItemResponse(res.Item),
		SubCategory: toSubCategoryResponse(res.SubCategory),
	}
}

func toPeriodResponse(p *finance.FinancialPeriod) PeriodResponse {
	return PeriodResponse{
		ID:          p.ID,
		Name:        p.Name,
		StartDate:   p.StartDate.Format(dateLayout),
		EndDate:     p.EndDate.Format(dateLayout),
		Status:      string(p.Status),
		Currency:    p.Currency,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toFinancialCategoryResponse(c *finance.FinancialCategory) FinancialCategoryResponse {
	return FinancialCategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

func toFinancialRecordResponse(r *finance.FinancialRecord) FinancialRecordResponse {
	return FinancialRecordResponse{
		ID:                  r.ID,
		FinancialCategoryID: r.FinancialCategoryID,
		FinancialPeriodID:   r.FinancialPeriodID,
		StockRecordID:       r.StockRecordID,
		Type:                string(r.Type),
		Amount:              r.Amount,
		Quantity:            r.Quantity,
		PaymentMethod:       r.PaymentMethod,
		Date:                r.Date.Format(dateLayout),
		Description:         r.Description,
		CreatedAt:           r.CreatedAt,
	}
}

// mapSlice converts each element of a slice
func mapSlice[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
