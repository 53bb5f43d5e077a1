package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64) *gin.Engine {
		router := gin.New()
		router.Use(BodyLimit(limit))
		router.POST("/upload", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusRequestEntityTooLarge, "read failed")
				return
			}
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("within limit", func(t *testing.T) {
		w := serve(newRouter(64), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small")))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := serve(newRouter(10), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 50))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 50)))
		req.ContentLength = -1

		w := serve(newRouter(10), req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("zero disables", func(t *testing.T) {
		w := serve(newRouter(0), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 50))))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
