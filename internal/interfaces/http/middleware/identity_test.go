package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/auth"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars!!",
		Issuer:     "stockledger-test",
		Expiration: time.Hour,
	})
}

func newIdentityRouter(cfg IdentityConfig) (*gin.Engine, *shared.Actor) {
	var seen shared.Actor
	router := gin.New()
	router.Use(Identity(cfg))
	handler := func(c *gin.Context) {
		if actor, ok := GetActor(c); ok && logger.GetCompanyID(c.Request.Context()) == actor.CompanyID.String() {
			seen = actor
		}
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/stock-items", handler)
	router.GET("/health", handler)
	return router, &seen
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestIdentity_BearerToken(t *testing.T) {
	jwtService := newTestJWTService()
	want := shared.NewActor(uuid.New(), uuid.New())
	token, _, err := jwtService.GenerateToken(want, 0)
	require.NoError(t, err)

	router, seen := newIdentityRouter(DefaultIdentityConfig(jwtService))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, want, *seen)
}

func TestIdentity_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "stockledger-test"})
	forged, _, err := other.GenerateToken(shared.NewActor(uuid.New(), uuid.New()), 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", "INVALID_TOKEN"},
		{"wrong signature", BearerPrefix + forged, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newIdentityRouter(DefaultIdentityConfig(jwtService))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}

			w := serve(router, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestIdentity_HeaderFallback(t *testing.T) {
	companyID, userID := uuid.New(), uuid.New()

	t.Run("accepted when allowed", func(t *testing.T) {
		cfg := DefaultIdentityConfig(newTestJWTService())
		cfg.AllowHeaderIdentity = true
		router, seen := newIdentityRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items", nil)
		req.Header.Set(CompanyHeaderKey, companyID.String())
		req.Header.Set(UserHeaderKey, userID.String())

		w := serve(router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, shared.NewActor(userID, companyID), *seen)
	})

	t.Run("company header required", func(t *testing.T) {
		cfg := DefaultIdentityConfig(nil)
		cfg.AllowHeaderIdentity = true
		router, _ := newIdentityRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items", nil)
		req.Header.Set(UserHeaderKey, userID.String())

		w := serve(router, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "COMPANY_REQUIRED", errorCode(t, w))
	})

	t.Run("ignored when disabled", func(t *testing.T) {
		router, _ := newIdentityRouter(DefaultIdentityConfig(newTestJWTService()))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items", nil)
		req.Header.Set(CompanyHeaderKey, companyID.String())

		w := serve(router, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIdentity_SkipPaths(t *testing.T) {
	router, seen := newIdentityRouter(DefaultIdentityConfig(newTestJWTService()))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shared.Actor{}, *seen)
}
