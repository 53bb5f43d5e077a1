package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, companyID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), companyID),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	block      chan struct{}
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("ledger.stock_record.created")
	bus.Subscribe(handler)

	event := newTestEvent("ledger.stock_record.created", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	created := newTestHandler()
	deleted := newTestHandler()
	all := newTestHandler()
	bus.Subscribe(created, "created")
	bus.Subscribe(deleted, "deleted")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("created", uuid.New()),
		newTestEvent("created", uuid.New()),
		newTestEvent("deleted", uuid.New()),
	))

	assert.Len(t, created.getHandled(), 2)
	assert.Len(t, deleted.getHandled(), 1)
	assert.Len(t, all.getHandled(), 3)
}

func TestInMemoryEventBus_HandlerFailureIsLogged(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("created")
	failing.err = errors.New("smtp down")
	next := newTestHandler("created")
	bus.Subscribe(failing)
	bus.Subscribe(shared.HandleFunc(func(context.Context, shared.DomainEvent) error { panic("boom") }))
	bus.Subscribe(next)

	err := bus.Publish(context.Background(), newTestEvent("created", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, next.getHandled(), 1)
	assert.Equal(t, 1, recorded.FilterMessage("handler failed to process event").Len())
	assert.Equal(t, 1, recorded.FilterMessage("handler panicked").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler("created")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("created", uuid.New())))

	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(nil, WithAsyncDispatch())
	handler := newTestHandler("created")
	handler.block = make(chan struct{})
	bus.Subscribe(handler)
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("created", uuid.New())))
	cancel()
	assert.Empty(t, handler.getHandled(), "publish must not wait for async handlers")

	close(handler.block)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_AsyncBeforeStartRunsInline(t *testing.T) {
	bus := NewInMemoryEventBus(nil, WithAsyncDispatch())
	handler := newTestHandler("created")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("created", uuid.New())))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_StopTimesOut(t *testing.T) {
	bus := NewInMemoryEventBus(nil, WithAsyncDispatch())
	handler := newTestHandler("created")
	handler.block = make(chan struct{})
	defer close(handler.block)
	bus.Subscribe(handler)
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("created", uuid.New())))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}
