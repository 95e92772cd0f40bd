// Package orchestrator advances the order state machine. It is the only
// writer of order status: every stage-outcome event maps to one status, and
// the orchestrator applies that status through the store.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/event"
	"github.com/example/marketplace-orders/internal/order"
)

// statusByKind maps each outcome event to the status it drives the order
// into. The mapping is applied without a legal-transition guard, so a stale
// or duplicate outcome event overwrites whatever status is current.
var statusByKind = map[event.Kind]order.Status{
	event.KindPaymentSuccess:    order.StatusPaid,
	event.KindPaymentFailed:     order.StatusPaymentFailed,
	event.KindStockUpdated:      order.StatusStockConfirmed,
	event.KindStockFailed:       order.StatusStockFailed,
	event.KindDeliveryScheduled: order.StatusCompleted,
}

type Orchestrator struct {
	bus    *bus.Bus
	store  order.Store
	logger *zap.Logger
}

func New(b *bus.Bus, store order.Store, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		bus:    b,
		store:  store,
		logger: logger.Named("orchestrator"),
	}
}

// Register subscribes the orchestrator to every outcome event kind.
func (o *Orchestrator) Register() {
	for kind := range statusByKind {
		o.bus.Subscribe(kind, o.handleOutcome)
	}
}

func (o *Orchestrator) handleOutcome(ctx context.Context, evt event.Event) error {
	status, ok := statusByKind[evt.Kind()]
	if !ok {
		return fmt.Errorf("orchestrator: no status mapping for %q", evt.Kind())
	}

	orderID := evt.Meta().OrderID

	previous, err := o.store.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// The orchestrator does not originate orders; an unknown id is
			// a no-op, not a failure.
			o.logger.Warn("outcome event for unknown order",
				zap.String("order_id", orderID),
				zap.String("kind", string(evt.Kind())),
			)
			return nil
		}
		return err
	}

	if _, err := o.store.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil
		}
		return err
	}

	o.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous.Status)),
		zap.String("to", string(status)),
	)
	return nil
}
