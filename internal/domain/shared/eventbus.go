package shared

import "context"

// EventHandler reacts to events after the transaction that produced them
// has committed. Delivery is at least once, so handlers that must not repeat
// side effects are wrapped in event.IdempotentHandler.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types to receive; nil means all of them
	EventTypes() []string
}

// HandleFunc turns fn into an EventHandler for eventTypes
func HandleFunc(fn func(ctx context.Context, event DomainEvent) error, eventTypes ...string) EventHandler {
	return &funcHandler{fn: fn, types: eventTypes}
}

type funcHandler struct {
	fn    func(context.Context, DomainEvent) error
	types []string
}

func (h *funcHandler) Handle(ctx context.Context, event DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *funcHandler) EventTypes() []string {
	return h.types
}

// EventPublisher hands committed events to their subscribers. A publish
// error is reported to the caller but never undoes the committed write.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the process-wide publisher. Handlers subscribe at startup;
// Stop waits for deliveries already in flight.
type EventBus interface {
	EventPublisher
	// Subscribe falls back to handler.EventTypes when no types are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
