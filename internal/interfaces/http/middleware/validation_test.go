package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movementRequest struct {
	Type     string          `json:"type" binding:"required,stock_txn_type"`
	Quantity decimal.Decimal `json:"quantity" binding:"required,decimal_gt=0"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req movementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Quantity.String()))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(router, req)
}

func TestCustomValidationTags(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTags   []string
	}{
		{"valid sale", `{"type":"Sale","quantity":"2.5"}`, http.StatusOK, nil},
		{"numeric quantity", `{"type":"Stock In","quantity":10}`, http.StatusOK, nil},
		{"unknown type", `{"type":"Refund","quantity":1}`, http.StatusBadRequest, []string{"stock_txn_type"}},
		{"zero quantity", `{"type":"Sale","quantity":0}`, http.StatusBadRequest, []string{"decimal_gt"}},
		{"negative quantity", `{"type":"Sale","quantity":"-1"}`, http.StatusBadRequest, []string{"decimal_gt"}},
		{"both invalid", `{"type":"","quantity":"-1"}`, http.StatusBadRequest, []string{"required", "decimal_gt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.body)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantTags == nil {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			var tags []string
			for _, f := range resp.Error.Fields {
				tags = append(tags, f.Tag)
			}
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestValidationMessages_UseJSONNames(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"type":"Refund","quantity":1}`)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "type", resp.Error.Fields[0].Field)
	assert.Contains(t, resp.Error.Fields[0].Message, "Stock In")
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"type":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed request")
}
