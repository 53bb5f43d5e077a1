package handler

import (
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest is the body of item create and update
type ItemRequest struct {
	StockSubCategoryID string          `json:"stock_sub_category_id" binding:"required,uuid"`
	Name               string          `json:"name" binding:"required,min=1,max=255"`
	Description        string          `json:"description" binding:"max=2000"`
	Image              string          `json:"image" binding:"max=500"`
	Barcode            string          `json:"barcode" binding:"max=100"`
	Gallery            []string        `json:"gallery" binding:"max=20,dive,max=500"`
	SKU                string          `json:"sku" binding:"max=100"`
	RegenerateSKU      bool            `json:"regenerate_sku"`
	BuyingPrice        decimal.Decimal `json:"buying_price"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	OriginalQuantity   decimal.Decimal `json:"original_quantity"`
}

func (r ItemRequest) toService() stock.ItemRequest {
	return stock.ItemRequest{
		StockSubCategoryID: uuid.MustParse(r.StockSubCategoryID),
		Name:               r.Name,
		Description:        r.Description,
		Image:              r.Image,
		Barcode:            r.Barcode,
		Gallery:            r.Gallery,
		SKU:                r.SKU,
		RegenerateSKU:      r.RegenerateSKU,
		BuyingPrice:        r.BuyingPrice,
		SellingPrice:       r.SellingPrice,
		OriginalQuantity:   r.OriginalQuantity,
	}
}

// ItemListQuery filters GET /stock-items
type ItemListQuery struct {
	dto.ListRequest
	StockCategoryID    string `form:"stock_category_id" binding:"omitempty,uuid"`
	StockSubCategoryID string `form:"stock_sub_category_id" binding:"omitempty,uuid"`
}

// StockItemHandler serves /stock-items
type StockItemHandler struct {
	BaseHandler
	service *stock.Service
}

// NewStockItemHandler creates a new StockItemHandler
func NewStockItemHandler(service *stock.Service) *StockItemHandler {
	return &StockItemHandler{service: service}
}

// Create handles POST /stock-items
func (h *StockItemHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.service.CreateItem(c.Request.Context(), actor, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toItemViewResponse(view))
}

// List handles GET /stock-items
func (h *StockItemHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	q := ItemListQuery{ListRequest: dto.DefaultListRequest()}
	if !h.bindQuery(c, &q) {
		return
	}
	filter := stock.ItemListFilter{
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	filter.CategoryID, _ = optionalUUID(q.StockCategoryID, "stock_category_id")
	filter.SubCategoryID, _ = optionalUUID(q.StockSubCategoryID, "stock_sub_category_id")

	page, err := h.service.ListItems(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := mapSlice(page.Items, toItemViewResponse)
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /stock-items/:id
func (h *StockItemHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetItem(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toItemViewResponse(view))
}

// Update handles PUT /stock-items/:id
func (h *StockItemHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.service.UpdateItem(c.Request.Context(), actor, id, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toItemViewResponse(view))
}

// Delete handles DELETE /stock-items/:id
func (h *StockItemHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
