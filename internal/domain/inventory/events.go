package inventory

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeStockRecord      = "StockRecord"
	AggregateTypeStockSubCategory = "StockSubCategory"
)

// Event type constants
const (
	EventTypeStockRecordCreated = "ledger.stock_record.created"
	EventTypeStockRecordDeleted = "ledger.stock_record.deleted"
	EventTypeLowStock           = "ledger.sub_category.low_stock"
)

// StockRecordCreatedEvent is raised after a ledger write commits
type StockRecordCreatedEvent struct {
	shared.BaseDomainEvent
	StockRecordID   uuid.UUID       `json:"stock_record_id"`
	StockItemID     uuid.UUID       `json:"stock_item_id"`
	ItemName        string          `json:"item_name"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	Profit          decimal.Decimal `json:"profit"`
	RemainingQty    decimal.Decimal `json:"remaining_quantity"`
	Unit            string          `json:"unit"`
}

// NewStockRecordCreatedEvent creates a StockRecordCreatedEvent
func NewStockRecordCreatedEvent(r *StockRecord, remaining decimal.Decimal) *StockRecordCreatedEvent {
	return &StockRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRecordCreated, AggregateTypeStockRecord, r.ID, r.CompanyID),
		StockRecordID:   r.ID,
		StockItemID:     r.StockItemID,
		ItemName:        r.Name,
		TransactionType: r.Type,
		Quantity:        r.Quantity,
		TotalSales:      r.TotalSales,
		Profit:          r.Profit,
		RemainingQty:    remaining,
		Unit:            r.MeasurementUnit,
	}
}

// StockRecordDeletedEvent is raised after a record is deleted and reversed
type StockRecordDeletedEvent struct {
	shared.BaseDomainEvent
	StockRecordID   uuid.UUID       `json:"stock_record_id"`
	StockItemID     uuid.UUID       `json:"stock_item_id"`
	ItemName        string          `json:"item_name"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reversed        bool            `json:"reversed"`
}

// NewStockRecordDeletedEvent creates a StockRecordDeletedEvent
func NewStockRecordDeletedEvent(r *StockRecord, reversed bool) *StockRecordDeletedEvent {
	return &StockRecordDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRecordDeleted, AggregateTypeStockRecord, r.ID, r.CompanyID),
		StockRecordID:   r.ID,
		StockItemID:     r.StockItemID,
		ItemName:        r.Name,
		TransactionType: r.Type,
		Quantity:        r.Quantity,
		Reversed:        reversed,
	}
}

// LowStockEvent is raised when recomputation leaves a sub-category at or
// below its reorder level
type LowStockEvent struct {
	shared.BaseDomainEvent
	SubCategoryID   uuid.UUID       `json:"sub_category_id"`
	Name            string          `json:"name"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	Message         string          `json:"message"`
}

// NewLowStockEvent creates a LowStockEvent
func NewLowStockEvent(s *StockSubCategory) *LowStockEvent {
	return &LowStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStock, AggregateTypeStockSubCategory, s.ID, s.CompanyID),
		SubCategoryID:   s.ID,
		Name:            s.Name,
		CurrentQuantity: s.CurrentQuantity,
		ReorderLevel:    s.ReorderLevel,
		Message:         s.LowStockMessage(),
	}
}
