package ledger

import "context"

// Outcomes recorded with each transaction
const (
	OutcomeSuccess           = "success"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// Soft failure kinds
const (
	SoftFailureFinancialRecord = "financial_record"
	SoftFailureEventPublish    = "event_publish"
	SoftFailureNotification    = "notification"
)

// Metrics receives ledger counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordTransaction(ctx context.Context, txnType, outcome string)
	RecordInsufficientStock(ctx context.Context)
	RecordSoftFailure(ctx context.Context, kind string)
	RecordLowStock(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransaction(context.Context, string, string) {}
func (noopMetrics) RecordInsufficientStock(context.Context)           {}
func (noopMetrics) RecordSoftFailure(context.Context, string)         {}
func (noopMetrics) RecordLowStock(context.Context)                    {}
