package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/application/notification"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	sent []notification.Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n notification.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

type failureCounter struct{ kinds []string }

func (c *failureCounter) RecordSoftFailure(_ context.Context, kind string) {
	c.kinds = append(c.kinds, kind)
}

func saleRecord() *inventory.StockRecord {
	actor := shared.Actor{UserID: uuid.New(), CompanyID: uuid.New()}
	item := &inventory.StockItem{Name: "Slate"}
	item.ID = uuid.New()
	r := inventory.NewStockRecord(actor, item, "pcs", uuid.New(), inventory.RecordInput{
		Type:     inventory.TransactionSale,
		Quantity: decimal.NewFromInt(5),
	})
	r.TotalSales = decimal.NewFromInt(75)
	r.Profit = decimal.NewFromInt(25)
	return r
}

func TestLedgerHandler_StockRecordCreated(t *testing.T) {
	fake := &fakeNotifier{}
	h := notification.NewLedgerHandler(fake, []string{"owner@example.com"}, nil)

	err := h.Handle(context.Background(), inventory.NewStockRecordCreatedEvent(saleRecord(), decimal.NewFromInt(15)))

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	sent := fake.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, sent.Recipients)
	assert.Equal(t, "[Stock] Sale: Slate", sent.Subject)
	assert.Contains(t, sent.Body, "15 pcs")
	assert.Contains(t, sent.Body, "75.00")
	assert.Contains(t, sent.Body, "25.00")
}

func TestLedgerHandler_OtherEvents(t *testing.T) {
	fake := &fakeNotifier{}
	h := notification.NewLedgerHandler(fake, []string{"owner@example.com"}, nil)

	sub := &inventory.StockSubCategory{Name: "Tablets <10>", MeasurementUnit: "pcs", ReorderLevel: decimal.NewFromInt(5)}
	sub.CompanyID = uuid.New()

	require.NoError(t, h.Handle(context.Background(), inventory.NewStockRecordDeletedEvent(saleRecord(), true)))
	require.NoError(t, h.Handle(context.Background(), inventory.NewLowStockEvent(sub)))

	require.Len(t, fake.sent, 2)
	assert.Equal(t, "[Stock] Sale deleted: Slate", fake.sent[0].Subject)
	assert.Contains(t, fake.sent[0].Body, "yes")
	assert.Equal(t, "[Stock] Low stock: Tablets <10>", fake.sent[1].Subject)
	assert.Contains(t, fake.sent[1].Body, "Tablets &lt;10&gt;", "body is HTML escaped")
}

func TestLedgerHandler_Skips(t *testing.T) {
	t.Run("no recipients", func(t *testing.T) {
		fake := &fakeNotifier{}
		h := notification.NewLedgerHandler(fake, nil, nil)

		require.NoError(t, h.Handle(context.Background(), inventory.NewStockRecordCreatedEvent(saleRecord(), decimal.Zero)))
		assert.Empty(t, fake.sent)
	})

	t.Run("unknown event", func(t *testing.T) {
		fake := &fakeNotifier{}
		h := notification.NewLedgerHandler(fake, []string{"owner@example.com"}, nil)
		base := shared.NewBaseDomainEvent("other", "Other", uuid.New(), uuid.New())

		require.NoError(t, h.Handle(context.Background(), &base))
		assert.Empty(t, fake.sent)
	})
}

func TestLedgerHandler_SendFailure(t *testing.T) {
	fake := &fakeNotifier{err: errors.New("smtp down")}
	counter := &failureCounter{}
	h := notification.NewLedgerHandler(fake, []string{"owner@example.com"}, counter)

	err := h.Handle(context.Background(), inventory.NewStockRecordCreatedEvent(saleRecord(), decimal.Zero))

	require.Error(t, err)
	assert.Equal(t, []string{ledger.SoftFailureNotification}, counter.kinds)
}

func TestLedgerHandler_EventTypes(t *testing.T) {
	h := notification.NewLedgerHandler(&fakeNotifier{}, nil, nil)

	assert.ElementsMatch(t, []string{
		inventory.EventTypeStockRecordCreated,
		inventory.EventTypeStockRecordDeleted,
		inventory.EventTypeLowStock,
	}, h.EventTypes())
}
