package handler

import (
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// RecomputeHandler rebuilds hierarchy aggregates on demand
type RecomputeHandler struct {
	BaseHandler
	engine *ledger.Engine
}

// NewRecomputeHandler creates a new RecomputeHandler
func NewRecomputeHandler(engine *ledger.Engine) *RecomputeHandler {
	return &RecomputeHandler{engine: engine}
}

// SubCategory handles POST /stock-sub-categories/:id/recompute. The parent
// category is recomputed too.
func (h *RecomputeHandler) SubCategory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.engine.RecomputeSubCategory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSubCategoryResponse(sub))
}

// Category handles POST /stock-categories/:id/recompute
func (h *RecomputeHandler) Category(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.engine.RecomputeCategory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCategoryResponse(category))
}
