package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/cache"
	"github.com/example/marketplace-orders/internal/event"
	"github.com/example/marketplace-orders/internal/orchestrator"
	"github.com/example/marketplace-orders/internal/order"
	"github.com/example/marketplace-orders/internal/stage"
)

type pipeline struct {
	svc *OrderService
	bus *bus.Bus
}

// newPipeline wires the whole engine the way cmd/api does, with injected
// stage outcomes and zero retry delay so tests are deterministic.
func newPipeline(t *testing.T, paymentRate, stockRate float64) *pipeline {
	t.Helper()
	logger := zap.NewNop()
	b := bus.New(logger)
	store := order.NewCachedStore(
		order.NewMemoryStore(logger),
		cache.NewMemory(logger),
		time.Minute,
		logger,
	)

	stage.NewPayment(b, stage.PaymentConfig{
		SuccessRate: paymentRate,
		MaxRetries:  3,
		Rand:        func() float64 { return 0.5 },
	}, logger).Register()
	stage.NewStock(b, stage.StockConfig{
		SuccessRate: stockRate,
		Rand:        func() float64 { return 0.5 },
	}, logger).Register()
	stage.NewDelivery(b, logger).Register()
	orchestrator.New(b, store, logger).Register()

	return &pipeline{svc: NewOrderService(store, b, logger), bus: b}
}

type terminalNotice struct {
	kind    event.Kind
	orderID string
}

// subscribeTerminal registers for every terminal kind before any order is
// created and returns a channel carrying each terminal event observed.
func subscribeTerminal(b *bus.Bus) <-chan terminalNotice {
	terminal := make(chan terminalNotice, 16)
	for _, kind := range event.TerminalKinds {
		b.Subscribe(kind, func(ctx context.Context, evt event.Event) error {
			terminal <- terminalNotice{kind: evt.Kind(), orderID: evt.Meta().OrderID}
			return nil
		})
	}
	return terminal
}

func testItems() []order.Item {
	return []order.Item{{ProductID: "brand1-product-abc", Quantity: 2}}
}

func TestCreateOrder_InitialSnapshot(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)

	o, err := p.svc.CreateOrder(context.Background(), "c1", testItems(), "req-1")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "c1", o.CustomerID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)

	p.bus.Drain()
}

func TestCreateOrder_InvalidItems(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)

	tests := []struct {
		name    string
		items   []order.Item
		wantErr error
	}{
		{"no items", nil, order.ErrEmptyOrder},
		{"zero quantity", []order.Item{{ProductID: "p1", Quantity: 0}}, order.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := p.svc.CreateOrder(context.Background(), "c1", tt.items, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, o)
		})
	}
}

func TestPipeline_HappyPath_Completes(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)
	ctx := context.Background()

	o, err := p.svc.CreateOrder(ctx, "c1", testItems(), "req-1")
	require.NoError(t, err)
	p.bus.Drain()

	final, err := p.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, final.Status)
	assert.False(t, final.UpdatedAt.Before(final.CreatedAt))
}

func TestPipeline_TerminalEventIsDeliveryScheduled(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)
	terminal := subscribeTerminal(p.bus)

	o, err := p.svc.CreateOrder(context.Background(), "c1", testItems(), "")
	require.NoError(t, err)

	select {
	case notice := <-terminal:
		assert.Equal(t, event.KindDeliveryScheduled, notice.kind)
		assert.Equal(t, o.ID, notice.orderID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal event")
	}
	p.bus.Drain()
}

func TestPipeline_PaymentFailure_NoDownstreamEvents(t *testing.T) {
	p := newPipeline(t, 0, 1.0)
	ctx := context.Background()

	var mu sync.Mutex
	var downstream []event.Kind
	for _, kind := range []event.Kind{event.KindStockUpdated, event.KindStockFailed, event.KindDeliveryScheduled} {
		kind := kind
		p.bus.Subscribe(kind, func(ctx context.Context, evt event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			downstream = append(downstream, kind)
			return nil
		})
	}

	o, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	final, err := p.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaymentFailed, final.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, downstream, "no stock or delivery events after payment failure")
}

func TestPipeline_StockFailure(t *testing.T) {
	p := newPipeline(t, 1.0, 0)
	ctx := context.Background()

	o, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	final, err := p.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusStockFailed, final.Status)
}

func TestPipeline_ExactlyOneTerminalTransition(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)

	var terminals atomic.Int32
	for _, kind := range event.TerminalKinds {
		p.bus.Subscribe(kind, func(ctx context.Context, evt event.Event) error {
			terminals.Add(1)
			return nil
		})
	}

	_, err := p.svc.CreateOrder(context.Background(), "c1", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	assert.Equal(t, int32(1), terminals.Load())
}

func TestPipeline_RequestIDPropagatesToAllEvents(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)

	var mu sync.Mutex
	var requestIDs []string
	kinds := []event.Kind{
		event.KindOrderCreated,
		event.KindPaymentSuccess,
		event.KindStockUpdated,
		event.KindDeliveryScheduled,
	}
	for _, kind := range kinds {
		p.bus.Subscribe(kind, func(ctx context.Context, evt event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			requestIDs = append(requestIDs, evt.Meta().RequestID)
			return nil
		})
	}

	_, err := p.svc.CreateOrder(context.Background(), "c1", testItems(), "req-trace-1")
	require.NoError(t, err)
	p.bus.Drain()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requestIDs, len(kinds))
	for _, id := range requestIDs {
		assert.Equal(t, "req-trace-1", id)
	}
}

func TestPipeline_IndependentOrdersInterleave(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		o, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	p.bus.Drain()

	for _, id := range ids {
		final, err := p.svc.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCompleted, final.Status)
	}
}

func TestListOrders_PredicateFiltering(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)
	ctx := context.Background()

	_, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
	require.NoError(t, err)
	_, err = p.svc.CreateOrder(ctx, "c2", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	all, err := p.svc.ListOrders(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	c1Only, err := p.svc.ListOrders(ctx, func(o *order.Order) bool { return o.CustomerID == "c1" })
	require.NoError(t, err)
	require.Len(t, c1Only, 1)
	assert.Equal(t, "c1", c1Only[0].CustomerID)

	byCustomer, err := p.svc.ListOrdersByCustomer(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "c2", byCustomer[0].CustomerID)
}

func TestShutdown_StopsPipeline(t *testing.T) {
	p := newPipeline(t, 1.0, 1.0)
	ctx := context.Background()

	o, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	p.svc.Shutdown()

	// Orders created after shutdown stay PENDING: no handlers remain.
	stuck, err := p.svc.CreateOrder(ctx, "c1", testItems(), "")
	require.NoError(t, err)
	p.bus.Drain()

	final, err := p.svc.GetOrder(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, final.Status)

	completed, err := p.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, completed.Status)
}
