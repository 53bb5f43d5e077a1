package handler

import (
	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodRequest is the body of POST /financial-periods
type PeriodRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	StartDate   string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Currency    string `json:"currency" binding:"max=10"`
	Description string `json:"description" binding:"max=2000"`
	Activate    bool   `json:"activate"`
}

// FinancialCategoryRequest is the body of POST /financial-categories
type FinancialCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// FinancialRecordRequest is the body of POST /financial-records
type FinancialRecordRequest struct {
	FinancialCategoryID string          `json:"financial_category_id" binding:"required,uuid"`
	Type                string          `json:"type" binding:"required,oneof=Income Expense"`
	Amount              decimal.Decimal `json:"amount" binding:"required,decimal_gt=0"`
	Quantity            decimal.Decimal `json:"quantity"`
	PaymentMethod       string          `json:"payment_method" binding:"max=50"`
	Date                string          `json:"date"`
	Description         string          `json:"description" binding:"max=2000"`
}

// FinancialRecordListQuery filters GET /financial-records
type FinancialRecordListQuery struct {
	dto.ListRequest
	Type                string `form:"type" binding:"omitempty,oneof=Income Expense"`
	FinancialCategoryID string `form:"financial_category_id" binding:"omitempty,uuid"`
	FinancialPeriodID   string `form:"financial_period_id" binding:"omitempty,uuid"`
	From                string `form:"from"`
	To                  string `form:"to"`
}

// ProvisionResponse reports how many default categories were inserted
type ProvisionResponse struct {
	Created int `json:"created"`
}

// FinanceHandler serves financial periods, categories and records
type FinanceHandler struct {
	BaseHandler
	service *financeapp.Service
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(service *financeapp.Service) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// CreatePeriod handles POST /financial-periods
func (h *FinanceHandler) CreatePeriod(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req PeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	start, _ := parseDate(req.StartDate)
	end, _ := parseDate(req.EndDate)
	period, err := h.service.CreatePeriod(c.Request.Context(), actor, finance.PeriodInput{
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		Currency:    req.Currency,
		Description: req.Description,
		Activate:    req.Activate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPeriodResponse(period))
}

// ListPeriods handles GET /financial-periods
func (h *FinanceHandler) ListPeriods(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	periods, err := h.service.ListPeriods(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapSlice(periods, toPeriodResponse))
}

// ActivatePeriod handles POST /financial-periods/:id/activate
func (h *FinanceHandler) ActivatePeriod(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	period, err := h.service.ActivatePeriod(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPeriodResponse(period))
}

// ActivePeriod handles GET /financial-periods/active
func (h *FinanceHandler) ActivePeriod(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	period, err := h.service.GetActivePeriod(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPeriodResponse(period))
}

// CreateCategory handles POST /financial-categories
func (h *FinanceHandler) CreateCategory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req FinancialCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), actor, req.Name, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toFinancialCategoryResponse(category))
}

// ListCategories handles GET /financial-categories
func (h *FinanceHandler) ListCategories(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	categories, err := h.service.ListCategories(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapSlice(categories, toFinancialCategoryResponse))
}

// ProvisionCategories handles POST /financial-categories/provision
func (h *FinanceHandler) ProvisionCategories(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	created, err := h.service.ProvisionCategories(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ProvisionResponse{Created: created})
}

// CreateRecord handles POST /financial-records
func (h *FinanceHandler) CreateRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req FinancialRecordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	record, err := h.service.CreateRecord(c.Request.Context(), actor, finance.RecordInput{
		FinancialCategoryID: uuid.MustParse(req.FinancialCategoryID),
		Type:                finance.RecordType(req.Type),
		Amount:              req.Amount,
		Quantity:            req.Quantity,
		PaymentMethod:       req.PaymentMethod,
		Date:                date,
		Description:         req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toFinancialRecordResponse(record))
}

// GetRecord handles GET /financial-records/:id
func (h *FinanceHandler) GetRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.service.GetRecord(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFinancialRecordResponse(record))
}

// ListRecords handles GET /financial-records
func (h *FinanceHandler) ListRecords(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	q := FinancialRecordListQuery{ListRequest: dto.DefaultListRequest()}
	if !h.bindQuery(c, &q) {
		return
	}
	filter := financeapp.RecordListFilter{
		Type:     finance.RecordType(q.Type),
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	filter.CategoryID, _ = optionalUUID(q.FinancialCategoryID, "financial_category_id")
	filter.PeriodID, _ = optionalUUID(q.FinancialPeriodID, "financial_period_id")
	var err error
	if filter.From, err = optionalDate(q.From); err != nil {
		h.HandleError(c, err)
		return
	}
	if filter.To, err = optionalDate(q.To); err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.service.ListRecords(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, mapSlice(page.Items, toFinancialRecordResponse), page.Total, page.Page, page.PageSize)
}
