package handler

import (
	"fmt"
	"net/http"
	"strings"

	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/gin-gonic/gin"
)

// ReportRequest selects a report, as a JSON body or query string
type ReportRequest struct {
	Type       string `json:"type" form:"type" binding:"required,oneof=Financial Inventory"`
	PeriodType string `json:"period_type" form:"period_type" binding:"required,oneof=Today Yesterday Week Month Cycle Year Custom"`
	StartDate  string `json:"start_date" form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string `json:"end_date" form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func (r ReportRequest) toService() financeapp.ReportRequest {
	return financeapp.ReportRequest{
		Type:       finance.ReportType(r.Type),
		PeriodType: finance.ReportPeriodType(r.PeriodType),
		Start:      r.StartDate,
		End:        r.EndDate,
	}
}

// ExportQuery is the query string of GET /reports/export
type ExportQuery struct {
	ReportRequest
	Format string `form:"format" binding:"required,oneof=xlsx pdf"`
}

// ReportHandler serves /reports
type ReportHandler struct {
	BaseHandler
	service *financeapp.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *financeapp.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// Generate handles POST /reports
func (h *ReportHandler) Generate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ReportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	report, err := h.service.Report(c.Request.Context(), actor, req.toService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Export handles GET /reports/export?format=xlsx|pdf
func (h *ReportHandler) Export(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ExportQuery
	if !h.bindQuery(c, &q) {
		return
	}
	data, contentType, err := h.service.Export(c.Request.Context(), actor, q.toService(), q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filename := fmt.Sprintf("%s-report-%s.%s",
		strings.ToLower(q.Type), strings.ToLower(q.PeriodType), q.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
