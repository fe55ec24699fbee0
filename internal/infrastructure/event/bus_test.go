package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
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

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "payload",
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())

	receipts := newTestHandler("ReceiptCompleted")
	all := newTestHandler()
	bus.Subscribe(receipts)
	bus.Subscribe(all)

	first, second := newTestEvent("ReceiptCompleted"), newTestEvent("CashRegisterUpdated")
	require.NoError(t, bus.Publish(ctx, first, second))

	assert.Equal(t, 1, receipts.count())
	assert.Equal(t, 2, all.count())
	assert.Equal(t, []shared.DomainEvent{first, second}, all.handled)
}

func TestInMemoryEventBus_ExplicitTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("ReceiptCompleted")
	bus.Subscribe(handler, "DayClosed")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ReceiptCompleted"), newTestEvent("DayClosed")))
	assert.Equal(t, 1, handler.count())
	assert.Equal(t, "DayClosed", handler.handled[0].EventType())
}

func TestInMemoryEventBus_FailingHandlers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("DayClosed")
	failing.err = errors.New("disk full")
	panicking := newTestHandler("DayClosed")
	panicking.panicMsg = "boom"
	healthy := newTestHandler("DayClosed")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DayClosed")))

	assert.Equal(t, 1, healthy.count())
	entries := logs.FilterMessage("Event handler failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
	assert.Contains(t, entries[1].ContextMap()["error"], "boom")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("DayClosed")
	wildcard := newTestHandler()
	bus.Subscribe(handler)
	bus.Subscribe(wildcard)
	bus.Subscribe(handler, "ReceiptCompleted")
	assert.Equal(t, 2, bus.registry.Count())

	bus.Unsubscribe(handler)
	bus.Unsubscribe(wildcard)
	assert.Equal(t, 0, bus.registry.Count())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DayClosed")))
	assert.Equal(t, 0, handler.count())
	assert.Equal(t, 0, wildcard.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.New(core))
	handler := newTestHandler()
	bus.Subscribe(handler)

	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("DayClosed")))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))

	require.NoError(t, bus.Publish(ctx, newTestEvent("DayClosed")))
	assert.Equal(t, 1, handler.count(), "events after stop are dropped")
	assert.Equal(t, 1, logs.FilterMessage("Event bus stopped, dropping events").Len())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newTestEvent("DayClosed")))
	assert.Equal(t, 2, handler.count())
}
