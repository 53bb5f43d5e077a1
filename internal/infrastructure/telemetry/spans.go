package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/erp/stockledger"

// Span attribute keys used by the ledger services.
const (
	SpanAttrCompanyID       = "company_id"
	SpanAttrItemID          = "stock_item_id"
	SpanAttrSubCategoryID   = "stock_sub_category_id"
	SpanAttrCategoryID      = "stock_category_id"
	SpanAttrStockRecordID   = "stock_record_id"
	SpanAttrTransactionType = "transaction_type"
	SpanAttrQuantity        = "quantity"
	SpanAttrPeriodID        = "financial_period_id"
	SpanAttrSKU             = "sku"
)

// StartSpan starts an internal span on the global tracer. keyValues are
// alternating string keys and values.
func StartSpan(ctx context.Context, name string, keyValues ...any) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attributesOf(keyValues)...),
	)
}

// StartServiceSpan starts a span named "<service>.<method>".
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "CreateTransaction")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, keyValues...)
}

// SetAttributes sets alternating key/value pairs on span.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(attributesOf(keyValues)...)
}

// AddEvent records a named event with alternating key/value pairs.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attributesOf(keyValues)...))
}

// RecordError records err on span and marks the span failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace id carried by ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// attributesOf pairs up keyValues; a non-string key drops its pair
func attributesOf(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, attributeOf(key, keyValues[i+1]))
	}
	return attrs
}

func attributeOf(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
