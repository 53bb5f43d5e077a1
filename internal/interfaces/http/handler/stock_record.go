package handler

import (
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordRequest is the body of POST /stock-records
type StockRecordRequest struct {
	StockItemID string          `json:"stock_item_id" binding:"required,uuid"`
	Type        string          `json:"type" binding:"required,stock_txn_type"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_gt=0"`
	// Date is YYYY-MM-DD; empty means today
	Date        string `json:"date"`
	Description string `json:"description" binding:"max=2000"`
}

// StockRecordListQuery filters GET /stock-records
type StockRecordListQuery struct {
	dto.ListRequest
	StockItemID        string `form:"stock_item_id" binding:"omitempty,uuid"`
	StockSubCategoryID string `form:"stock_sub_category_id" binding:"omitempty,uuid"`
	StockCategoryID    string `form:"stock_category_id" binding:"omitempty,uuid"`
	Type               string `form:"type" binding:"omitempty,stock_txn_type"`
	From               string `form:"from"`
	To                 string `form:"to"`
}

// StockRecordHandler serves /stock-records
type StockRecordHandler struct {
	BaseHandler
	engine *ledger.Engine
}

// NewStockRecordHandler creates a new StockRecordHandler
func NewStockRecordHandler(engine *ledger.Engine) *StockRecordHandler {
	return &StockRecordHandler{engine: engine}
}

// Create handles POST /stock-records
func (h *StockRecordHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req StockRecordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.engine.CreateTransaction(c.Request.Context(), actor, ledger.CreateTransactionRequest{
		ItemID:      uuid.MustParse(req.StockItemID),
		Type:        inventory.TransactionType(req.Type),
		Quantity:    req.Quantity,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransactionResponse(result))
}

// List handles GET /stock-records
func (h *StockRecordHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	q := StockRecordListQuery{ListRequest: dto.DefaultListRequest()}
	if !h.bindQuery(c, &q) {
		return
	}
	filter := ledger.RecordListFilter{
		Type:     inventory.TransactionType(q.Type),
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	filter.ItemID, _ = optionalUUID(q.StockItemID, "stock_item_id")
	filter.SubCategoryID, _ = optionalUUID(q.StockSubCategoryID, "stock_sub_category_id")
	filter.CategoryID, _ = optionalUUID(q.StockCategoryID, "stock_category_id")
	var err error
	if filter.From, err = optionalDate(q.From); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.To, err = optionalDate(q.To); err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.engine.ListRecords(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, mapSlice(page.Items, toRecordResponse), page.Total, page.Page, page.PageSize)
}

// Get handles GET /stock-records/:id
func (h *StockRecordHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.engine.GetRecord(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}

// Delete handles DELETE /stock-records/:id. The reversal result is
// returned so clients can refresh the item without another round trip.
func (h *StockRecordHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.engine.DeleteTransaction(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDeleteTransactionResponse(result))
}
