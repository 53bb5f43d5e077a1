package handler

import (
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubCategoryRequest is the body of sub-category create and update
type SubCategoryRequest struct {
	StockCategoryID string          `json:"stock_category_id" binding:"required,uuid"`
	Name            string          `json:"name" binding:"required,min=1,max=255"`
	Description     string          `json:"description" binding:"max=2000"`
	Image           string          `json:"image" binding:"max=500"`
	Status          string          `json:"status" binding:"omitempty,oneof=Active Inactive"`
	MeasurementUnit string          `json:"measurement_unit" binding:"max=50"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
}

func (r SubCategoryRequest) toService() stock.SubCategoryRequest {
	return stock.SubCategoryRequest{
		StockCategoryID: uuid.MustParse(r.StockCategoryID),
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		Status:          inventory.Status(r.Status),
		MeasurementUnit: r.MeasurementUnit,
		ReorderLevel:    r.ReorderLevel,
	}
}

// SubCategoryOptionResponse is one autocomplete hit
type SubCategoryOptionResponse struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// StockSubCategoryHandler serves /stock-sub-categories
type StockSubCategoryHandler struct {
	BaseHandler
	service *stock.Service
}

// NewStockSubCategoryHandler creates a new StockSubCategoryHandler
func NewStockSubCategoryHandler(service *stock.Service) *StockSubCategoryHandler {
	return &StockSubCategoryHandler{service: service}
}

// Create handles POST /stock-sub-categories
func (h *StockSubCategoryHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req SubCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.service.CreateSubCategory(c.Request.Context(), actor, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSubCategoryResponse(sub))
}

// List handles GET /stock-sub-categories?stock_category_id=
func (h *StockSubCategoryHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	categoryID, err := optionalUUID(c.Query("stock_category_id"), "stock_category_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	subs, err := h.service.ListSubCategories(c.Request.Context(), actor, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapSlice(subs, toSubCategoryResponse))
}

// Search handles GET /stock-sub-categories/search?q=
func (h *StockSubCategoryHandler) Search(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	options, err := h.service.SearchSubCategories(c.Request.Context(), actor, c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapSlice(options, func(o *stock.SubCategoryOption) SubCategoryOptionResponse {
		return SubCategoryOptionResponse{ID: o.ID, Text: o.Text}
	}))
}

// Get handles GET /stock-sub-categories/:id
func (h *StockSubCategoryHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.service.GetSubCategory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSubCategoryResponse(sub))
}

// Update handles PUT /stock-sub-categories/:id
func (h *StockSubCategoryHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SubCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.service.UpdateSubCategory(c.Request.Context(), actor, id, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSubCategoryResponse(sub))
}

// Delete handles DELETE /stock-sub-categories/:id
func (h *StockSubCategoryHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSubCategory(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
