package stage

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/event"
)

// PaymentConfig controls the simulated payment attempt.
type PaymentConfig struct {
	SuccessRate    float64 // probability in [0, 1] that one attempt succeeds
	MaxRetries     int     // total attempts, >= 1
	RetryBaseDelay time.Duration

	// Rand returns a draw in [0, 1); defaults to the shared PRNG. Tests
	// inject a deterministic source.
	Rand func() float64
}

// Payment consumes order.created events, attempts payment with bounded
// retries and linear backoff, and publishes exactly one of payment.success
// or payment.failed per distinct input event.
type Payment struct {
	bus    *bus.Bus
	cfg    PaymentConfig
	seen   *seenSet
	logger *zap.Logger
}

func NewPayment(b *bus.Bus, cfg PaymentConfig, logger *zap.Logger) *Payment {
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	return &Payment{
		bus:    b,
		cfg:    cfg,
		seen:   newSeenSet(),
		logger: logger.Named("payment"),
	}
}

// Register subscribes the stage to the bus.
func (p *Payment) Register() {
	p.bus.Subscribe(event.KindOrderCreated, p.handleOrderCreated)
}

func (p *Payment) handleOrderCreated(ctx context.Context, evt event.Event) error {
	created, ok := evt.(event.OrderCreated)
	if !ok {
		return fmt.Errorf("payment: unexpected event type %T", evt)
	}

	if p.seen.markSeen(created.EventID) {
		p.logger.Warn("duplicate event skipped",
			zap.String("event_id", created.EventID),
			zap.String("order_id", created.OrderID),
		)
		return nil
	}

	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		success := p.cfg.Rand() > 1-p.cfg.SuccessRate
		p.logger.Info("payment attempt",
			zap.String("order_id", created.OrderID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.cfg.MaxRetries),
			zap.Bool("success", success),
		)

		if success {
			amount := len(created.Items) * 100
			p.bus.Publish(ctx, event.PaymentSuccess{
				Envelope: event.NewEnvelope(created.OrderID, created.RequestID),
				Amount:   amount,
			})
			return nil
		}

		if attempt < p.cfg.MaxRetries {
			// Linear backoff. Sleeping here suspends only this handler's
			// goroutine, not other handlers or other orders.
			if err := sleep(ctx, p.cfg.RetryBaseDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	p.bus.Publish(ctx, event.PaymentFailed{
		Envelope: event.NewEnvelope(created.OrderID, created.RequestID),
		Reason:   fmt.Sprintf("Payment declined after %d attempts", p.cfg.MaxRetries),
	})
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
