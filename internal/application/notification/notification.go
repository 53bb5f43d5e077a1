// Package notification turns committed ledger events into email
// notifications for the configured recipients.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Notification is a single message to deliver
type Notification struct {
	Recipients []string
	Subject    string
	Body       string // HTML
}

// Notifier delivers notifications
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// SoftFailureRecorder counts delivery failures
type SoftFailureRecorder interface {
	RecordSoftFailure(ctx context.Context, kind string)
}

// LedgerHandler subscribes to ledger events and emails a summary of each
type LedgerHandler struct {
	notifier   Notifier
	recipients []string
	metrics    SoftFailureRecorder
}

// NewLedgerHandler creates a LedgerHandler. metrics may be nil.
func NewLedgerHandler(notifier Notifier, recipients []string, metrics SoftFailureRecorder) *LedgerHandler {
	return &LedgerHandler{notifier: notifier, recipients: recipients, metrics: metrics}
}

// EventTypes returns the ledger events that trigger an email
func (h *LedgerHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockRecordCreated,
		inventory.EventTypeStockRecordDeleted,
		inventory.EventTypeLowStock,
	}
}

// Handle renders and sends the notification for event. Failures are logged
// and counted, then returned so the bus logs them with the event id.
func (h *LedgerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if len(h.recipients) == 0 {
		return nil
	}

	n, ok, err := render(event)
	if err != nil || !ok {
		return err
	}
	n.Recipients = h.recipients

	if err := h.notifier.Send(ctx, n); err != nil {
		logger.L(ctx).Warn("ledger notification failed",
			zap.String("event_type", event.EventType()),
			zap.String("company_id", event.CompanyID().String()),
			zap.Error(err))
		if h.metrics != nil {
			h.metrics.RecordSoftFailure(ctx, ledger.SoftFailureNotification)
		}
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

var bodyTemplate = template.Must(template.New("body").Parse(`<html><body>
<h3>{{.Title}}</h3>
<table>
{{range .Rows}}<tr><td><b>{{.Label}}</b></td><td>{{.Value}}</td></tr>
{{end}}</table>
<p>Company {{.CompanyID}} at {{.At}}</p>
</body></html>`))

type row struct{ Label, Value string }

type body struct {
	Title     string
	Rows      []row
	CompanyID string
	At        string
}

func render(event shared.DomainEvent) (Notification, bool, error) {
	var (
		subject string
		b       = body{CompanyID: event.CompanyID().String(), At: event.OccurredAt().Format("2006-01-02 15:04:05")}
	)

	switch e := event.(type) {
	case *inventory.StockRecordCreatedEvent:
		subject = fmt.Sprintf("[Stock] %s: %s", e.TransactionType, e.ItemName)
		b.Title = fmt.Sprintf("%s recorded for %s", e.TransactionType, e.ItemName)
		b.Rows = []row{
			{"Quantity", e.Quantity.String() + " " + e.Unit},
			{"Remaining", e.RemainingQty.String() + " " + e.Unit},
		}
		if e.TransactionType == inventory.TransactionSale {
			b.Rows = append(b.Rows,
				row{"Total sales", e.TotalSales.StringFixed(2)},
				row{"Profit", e.Profit.StringFixed(2)})
		}
	case *inventory.StockRecordDeletedEvent:
		subject = fmt.Sprintf("[Stock] %s deleted: %s", e.TransactionType, e.ItemName)
		b.Title = fmt.Sprintf("%s of %s deleted", e.TransactionType, e.ItemName)
		reversed := "no"
		if e.Reversed {
			reversed = "yes"
		}
		b.Rows = []row{{"Quantity", e.Quantity.String()}, {"Stock reversed", reversed}}
	case *inventory.LowStockEvent:
		subject = "[Stock] Low stock: " + e.Name
		b.Title = e.Message
		b.Rows = []row{
			{"Current quantity", e.CurrentQuantity.String()},
			{"Reorder level", e.ReorderLevel.String()},
		}
	default:
		return Notification{}, false, nil
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, b); err != nil {
		return Notification{}, false, fmt.Errorf("render notification: %w", err)
	}
	return Notification{Subject: subject, Body: buf.String()}, true, nil
}

var _ shared.EventHandler = (*LedgerHandler)(nil)
