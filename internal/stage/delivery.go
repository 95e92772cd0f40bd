package stage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/event"
)

// deliveryOffset is the fixed estimate offset from the moment the stock
// check cleared.
const deliveryOffset = 3 * 24 * time.Hour

// Delivery consumes stock.updated events and publishes delivery.scheduled
// with an estimated delivery timestamp. This stage has no simulated failure.
type Delivery struct {
	bus    *bus.Bus
	seen   *seenSet
	logger *zap.Logger
	now    func() time.Time
}

func NewDelivery(b *bus.Bus, logger *zap.Logger) *Delivery {
	return &Delivery{
		bus:    b,
		seen:   newSeenSet(),
		logger: logger.Named("delivery"),
		now:    time.Now,
	}
}

func (d *Delivery) Register() {
	d.bus.Subscribe(event.KindStockUpdated, d.handleStockUpdated)
}

func (d *Delivery) handleStockUpdated(ctx context.Context, evt event.Event) error {
	updated, ok := evt.(event.StockUpdated)
	if !ok {
		return fmt.Errorf("delivery: unexpected event type %T", evt)
	}

	if d.seen.markSeen(updated.EventID) {
		d.logger.Warn("duplicate event skipped",
			zap.String("event_id", updated.EventID),
			zap.String("order_id", updated.OrderID),
		)
		return nil
	}

	estimate := d.now().Add(deliveryOffset).UTC().Format(time.RFC3339)
	d.logger.Info("delivery scheduled",
		zap.String("order_id", updated.OrderID),
		zap.String("estimated_delivery", estimate),
	)

	d.bus.Publish(ctx, event.DeliveryScheduled{
		Envelope:          event.NewEnvelope(updated.OrderID, updated.RequestID),
		EstimatedDelivery: estimate,
	})
	return nil
}
