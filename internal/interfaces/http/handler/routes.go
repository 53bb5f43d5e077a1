package handler

import (
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler
type Handlers struct {
	Categories    *StockCategoryHandler
	SubCategories *StockSubCategoryHandler
	Items         *StockItemHandler
	Records       *StockRecordHandler
	Recompute     *RecomputeHandler
	Finance       *FinanceHandler
	Reports       *ReportHandler
	Files         *FileHandler
	Cache         *CacheHandler
	Health        *HealthHandler
}

// RegisterHealth mounts the probes outside the authenticated API group
func (h Handlers) RegisterHealth(engine *gin.Engine) {
	if h.Health == nil {
		return
	}
	engine.GET("/health", h.Health.Live)
	engine.GET("/ready", h.Health.Ready)
}

// Register adds the resource groups of the versioned API to r
func (h Handlers) Register(r *router.Router) {
	if h.Categories != nil {
		g := router.NewDomainGroup("stock-categories", "/stock-categories")
		g.GET("", h.Categories.List).
			POST("", h.Categories.Create).
			GET("/:id", h.Categories.Get).
			PUT("/:id", h.Categories.Update).
			DELETE("/:id", h.Categories.Delete)
		if h.Recompute != nil {
			g.POST("/:id/recompute", h.Recompute.Category)
		}
		r.Register(g)
	}
	if h.SubCategories != nil {
		g := router.NewDomainGroup("stock-sub-categories", "/stock-sub-categories")
		g.GET("", h.SubCategories.List).
			POST("", h.SubCategories.Create).
			GET("/search", h.SubCategories.Search).
			GET("/:id", h.SubCategories.Get).
			PUT("/:id", h.SubCategories.Update).
			DELETE("/:id", h.SubCategories.Delete)
		if h.Recompute != nil {
			g.POST("/:id/recompute", h.Recompute.SubCategory)
		}
		r.Register(g)
	}
	if h.Items != nil {
		g := router.NewDomainGroup("stock-items", "/stock-items")
		g.GET("", h.Items.List).
			POST("", h.Items.Create).
			GET("/:id", h.Items.Get).
			PUT("/:id", h.Items.Update).
			DELETE("/:id", h.Items.Delete)
		r.Register(g)
	}
	if h.Records != nil {
		g := router.NewDomainGroup("stock-records", "/stock-records")
		g.GET("", h.Records.List).
			POST("", h.Records.Create).
			GET("/:id", h.Records.Get).
			DELETE("/:id", h.Records.Delete)
		r.Register(g)
	}
	if h.Finance != nil {
		periods := router.NewDomainGroup("financial-periods", "/financial-periods")
		periods.GET("", h.Finance.ListPeriods).
			POST("", h.Finance.CreatePeriod).
			GET("/active", h.Finance.ActivePeriod).
			POST("/:id/activate", h.Finance.ActivatePeriod)
		categories := router.NewDomainGroup("financial-categories", "/financial-categories")
		categories.GET("", h.Finance.ListCategories).
			POST("", h.Finance.CreateCategory).
			POST("/provision", h.Finance.ProvisionCategories)
		records := router.NewDomainGroup("financial-records", "/financial-records")
		records.GET("", h.Finance.ListRecords).
			POST("", h.Finance.CreateRecord).
			GET("/:id", h.Finance.GetRecord)
		r.Register(periods, categories, records)
	}
	if h.Reports != nil {
		g := router.NewDomainGroup("reports", "/reports")
		g.POST("", h.Reports.Generate).
			GET("/export", h.Reports.Export)
		r.Register(g)
	}
	if h.Files != nil {
		g := router.NewDomainGroup("files", "/files")
		g.POST("", h.Files.Upload)
		r.Register(g)
	}
	if h.Cache != nil {
		g := router.NewDomainGroup("admin", "/admin")
		g.DELETE("/cache", h.Cache.Flush).
			POST("/cache/warmup", h.Cache.WarmUp)
		r.Register(g)
	}
}
