// Package service is the command surface the transport layer talks to. It
// receives already-authenticated, already-validated commands, owns order
// creation, and exposes read paths over the store.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/event"
	"github.com/example/marketplace-orders/internal/order"
)

type OrderService struct {
	store  order.Store
	bus    *bus.Bus
	logger *zap.Logger
}

func NewOrderService(store order.Store, b *bus.Bus, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:  store,
		bus:    b,
		logger: logger.Named("orders"),
	}
}

// CreateOrder validates the items, persists a PENDING order and publishes
// order.created to start the fulfillment pipeline. The returned snapshot is
// the order as created; stages advance it asynchronously.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, items []order.Item, requestID string) (*order.Order, error) {
	if err := order.ValidateItems(items); err != nil {
		return nil, err
	}

	now := time.Now()
	o := &order.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Items:      items,
		Status:     order.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)

	s.bus.Publish(ctx, event.OrderCreated{
		Envelope:   event.NewEnvelope(o.ID, requestID),
		CustomerID: o.CustomerID,
		Items:      o.Items,
	})

	return o, nil
}

// GetOrder returns the order or order.ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.store.FindByID(ctx, id)
}

// ListOrders returns every order matching the caller-supplied predicate.
// A nil predicate matches everything; visibility rules (roles) are the
// caller's concern, not the core's.
func (s *OrderService) ListOrders(ctx context.Context, match func(*order.Order) bool) ([]*order.Order, error) {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return all, nil
	}
	filtered := make([]*order.Order, 0, len(all))
	for _, o := range all {
		if match(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// ListOrdersByCustomer is the common point lookup for customer-scoped reads.
func (s *OrderService) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	return s.store.FindByCustomerID(ctx, customerID)
}

// Shutdown detaches every event handler and waits for in-flight handler
// executions to finish. No new pipeline work is scheduled afterwards.
func (s *OrderService) Shutdown() {
	s.bus.Close()
	s.bus.Drain()
}
