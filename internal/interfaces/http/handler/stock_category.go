package handler

import (
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=255"`
	Description     string          `json:"description" binding:"max=2000"`
	Image           string          `json:"image" binding:"max=500"`
	Status          string          `json:"status" binding:"omitempty,oneof=Active Inactive"`
	MeasurementUnit string          `json:"measurement_unit" binding:"max=50"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
}

func (r CategoryRequest) toService() stock.CategoryRequest {
	return stock.CategoryRequest{
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		Status:          inventory.Status(r.Status),
		MeasurementUnit: r.MeasurementUnit,
		ReorderLevel:    r.ReorderLevel,
	}
}

// StockCategoryHandler serves /stock-categories
type StockCategoryHandler struct {
	BaseHandler
	service *stock.Service
}

// NewStockCategoryHandler creates a new StockCategoryHandler
func NewStockCategoryHandler(service *stock.Service) *StockCategoryHandler {
	return &StockCategoryHandler{service: service}
}

// Create handles POST /stock-categories
func (h *StockCategoryHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), actor, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCategoryResponse(category))
}

// List handles GET /stock-categories
func (h *StockCategoryHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	categories, err := h.service.ListCategories(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapSlice(categories, toCategoryResponse))
}

// Get handles GET /stock-categories/:id
func (h *StockCategoryHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.service.GetCategory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCategoryResponse(category))
}

// Update handles PUT /stock-categories/:id
func (h *StockCategoryHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), actor, id, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCategoryResponse(category))
}

// Delete handles DELETE /stock-categories/:id
func (h *StockCategoryHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
