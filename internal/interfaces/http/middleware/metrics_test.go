package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_CountsByRouteAndCompany(t *testing.T) {
	mp, reader := newTestMeter(t)
	actor := shared.NewActor(uuid.New(), uuid.New())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ActorKey, actor)
		c.Next()
	}, HTTPMetrics(mp.Meter("http.server")))
	router.GET("/api/v1/stock-items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "item")
	})

	for range 3 {
		serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/stock-items/"+uuid.NewString(), nil))
	}

	m := findMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/api/v1/stock-items/:id", route.AsString())
	company, _ := dp.Attributes.Value(attribute.Key("company_id"))
	assert.Equal(t, actor.CompanyID.String(), company.AsString())

	assert.NotNil(t, findMetric(t, reader, "http_server_request_duration_seconds"))
}

func TestHTTPMetrics_UnknownRoute(t *testing.T) {
	mp, reader := newTestMeter(t)
	router := gin.New()
	router.Use(HTTPMetrics(mp.Meter("http.server")))

	serve(router, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	m := findMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	dp := m.Data.(metricdata.Sum[int64]).DataPoints[0]
	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "unknown", route.AsString())
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
