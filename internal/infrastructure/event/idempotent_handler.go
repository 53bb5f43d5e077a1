package event

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDeliveryTTL is how long a handled event id is remembered
const DefaultDeliveryTTL = 24 * time.Hour

// IdempotentHandler skips events whose id was already handled. Handled ids
// are kept in a CacheStore; a store failure processes the event anyway,
// since a duplicate email is better than a lost one.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.CacheStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler; ttl <= 0 uses DefaultDeliveryTTL
func NewIdempotentHandler(handler shared.EventHandler, store shared.CacheStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDeliveryTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler once per event id
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event_delivered:" + event.EventID().String()

	_, seen, err := h.store.Get(ctx, key)
	if err != nil {
		h.logger.Warn("failed to check event delivery, processing anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
	}
	if seen {
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		return err
	}

	if err := h.store.Set(ctx, key, []byte(event.EventType()), h.ttl); err != nil {
		h.logger.Warn("failed to remember event delivery",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
