package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_RecordsActorAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	actor := shared.NewActor(uuid.New(), uuid.New())

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "stockledger-test", Enabled: true}))
	router.Use(RequestID(), SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		c.Set(ActorKey, actor)
		c.Next()
	}, ActorSpanAttributes())
	router.GET("/api/v1/stock-items/:id", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock-items/"+uuid.NewString(), nil)
	req.Header.Set(RequestIDHeader, "req-trace")
	serve(router, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/v1/stock-items/:id", span.Name())
	a := attrs(span)
	assert.Equal(t, "req-trace", a["request_id"].AsString())
	assert.Equal(t, actor.CompanyID.String(), a["company_id"].AsString())
	assert.Equal(t, actor.UserID.String(), a["user_id"].AsString())
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestTracing_ClientErrorKeepsStatusUnset(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "stockledger-test", Enabled: true}), SpanErrorMarker())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	serve(router, httptest.NewRequest(http.MethodGet, "/x", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.EqualValues(t, http.StatusUnprocessableEntity, attrs(spans[0])["http.status_code"].AsInt64())
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}
