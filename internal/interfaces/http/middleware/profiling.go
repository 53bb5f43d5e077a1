package middleware

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling attaches pyroscope labels (route, method, controller, company)
// to the request goroutine. Place it after Identity.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		var companyID string
		if actor, ok := GetActor(c); ok {
			companyID = actor.CompanyID.String()
		}
		labels := telemetry.HTTPRequestLabels(controllerOf(route), route, c.Request.Method, companyID)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerOf derives a resource name from a route pattern:
// "/api/v1/stock-items/:id" -> "stock-items"
func controllerOf(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
