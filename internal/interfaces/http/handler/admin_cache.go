package handler

import (
	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/gin-gonic/gin"
)

// FlushResponse reports how many cache keys were removed
type FlushResponse struct {
	Deleted int `json:"deleted"`
}

// CacheHandler serves /admin/cache for the caller's company
type CacheHandler struct {
	BaseHandler
	cache   *companycache.Cache
	sources []companycache.WarmUpSource
}

// NewCacheHandler creates a new CacheHandler. sources are the services
// asked to repopulate the cache on warm-up.
func NewCacheHandler(cache *companycache.Cache, sources ...companycache.WarmUpSource) *CacheHandler {
	return &CacheHandler{cache: cache, sources: sources}
}

// Flush handles DELETE /admin/cache
func (h *CacheHandler) Flush(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	deleted, err := h.cache.FlushCompany(c.Request.Context(), actor.CompanyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, FlushResponse{Deleted: deleted})
}

// WarmUp handles POST /admin/cache/warmup
func (h *CacheHandler) WarmUp(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.cache.WarmUp(c.Request.Context(), actor.CompanyID, h.sources...); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
