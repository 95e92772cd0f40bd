package stage

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/event"
)

// StockConfig controls the simulated stock check.
type StockConfig struct {
	SuccessRate float64
	Rand        func() float64
}

// Stock consumes payment.success events and runs a single stock check, no
// retries. Success publishes stock.updated, failure stock.failed.
type Stock struct {
	bus    *bus.Bus
	cfg    StockConfig
	seen   *seenSet
	logger *zap.Logger
}

func NewStock(b *bus.Bus, cfg StockConfig, logger *zap.Logger) *Stock {
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	return &Stock{
		bus:    b,
		cfg:    cfg,
		seen:   newSeenSet(),
		logger: logger.Named("stock"),
	}
}

func (s *Stock) Register() {
	s.bus.Subscribe(event.KindPaymentSuccess, s.handlePaymentSuccess)
}

func (s *Stock) handlePaymentSuccess(ctx context.Context, evt event.Event) error {
	paid, ok := evt.(event.PaymentSuccess)
	if !ok {
		return fmt.Errorf("stock: unexpected event type %T", evt)
	}

	if s.seen.markSeen(paid.EventID) {
		s.logger.Warn("duplicate event skipped",
			zap.String("event_id", paid.EventID),
			zap.String("order_id", paid.OrderID),
		)
		return nil
	}

	success := s.cfg.Rand() > 1-s.cfg.SuccessRate
	s.logger.Info("stock check",
		zap.String("order_id", paid.OrderID),
		zap.Bool("success", success),
	)

	if success {
		s.bus.Publish(ctx, event.StockUpdated{
			Envelope: event.NewEnvelope(paid.OrderID, paid.RequestID),
		})
		return nil
	}

	s.bus.Publish(ctx, event.StockFailed{
		Envelope: event.NewEnvelope(paid.OrderID, paid.RequestID),
		Reason:   "Insufficient stock",
	})
	return nil
}
