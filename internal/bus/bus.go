// Package bus implements the in-process publish/subscribe dispatcher the
// fulfillment pipeline communicates through. Dispatch is fire-and-forget:
// publishing schedules every handler on its own goroutine and returns
// immediately, and one handler's failure never reaches the publisher or the
// other handlers.
package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/event"
	"github.com/example/marketplace-orders/internal/messaging"
	"github.com/example/marketplace-orders/internal/messaging/noop"
)

// Handler processes one event. A returned error is logged by the bus and
// swallowed.
type Handler func(ctx context.Context, evt event.Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[event.Kind][]Handler
	closed   bool

	wg     sync.WaitGroup
	mirror messaging.Publisher
	logger *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithMirror copies every published event to an outbound publisher. Mirror
// errors are logged and never affect in-process delivery. The default mirror
// discards events.
func WithMirror(p messaging.Publisher) Option {
	return func(b *Bus) { b.mirror = p }
}

func New(logger *zap.Logger, opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[event.Kind][]Handler),
		mirror:   noop.Publisher{},
		logger:   logger.Named("bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a kind. Multiple handlers per kind are
// allowed; each receives every event of that kind independently.
func (b *Bus) Subscribe(kind event.Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish schedules every handler currently registered for the event's kind
// and returns without waiting for any of them. Handlers for the same event
// run concurrently with each other; the bus imposes no ordering.
func (b *Bus) Publish(ctx context.Context, evt event.Event) {
	meta := evt.Meta()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	hs := make([]Handler, len(b.handlers[evt.Kind()]))
	copy(hs, b.handlers[evt.Kind()])
	b.mu.RUnlock()

	b.logger.Info("event published",
		zap.String("kind", string(evt.Kind())),
		zap.String("order_id", meta.OrderID),
		zap.String("event_id", meta.EventID),
	)

	// Handlers outlive the publisher's context (an HTTP request, typically).
	ctx = context.WithoutCancel(ctx)

	for _, h := range hs {
		b.wg.Add(1)
		go b.run(ctx, h, evt)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.mirror.Publish(ctx, evt); err != nil {
			b.logger.Error("mirror publish failed",
				zap.String("kind", string(evt.Kind())),
				zap.String("order_id", meta.OrderID),
				zap.String("event_id", meta.EventID),
				zap.Error(err),
			)
		}
	}()
}

func (b *Bus) run(ctx context.Context, h Handler, evt event.Event) {
	defer b.wg.Done()
	meta := evt.Meta()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("kind", string(evt.Kind())),
				zap.String("order_id", meta.OrderID),
				zap.String("event_id", meta.EventID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h(ctx, evt); err != nil {
		b.logger.Error("event handler failed",
			zap.String("kind", string(evt.Kind())),
			zap.String("order_id", meta.OrderID),
			zap.String("event_id", meta.EventID),
			zap.Error(err),
		)
	}
}

// Close detaches every handler from every kind. Events published afterwards
// schedule nothing; handler executions already scheduled keep running.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[event.Kind][]Handler)
}

// Drain blocks until every scheduled handler execution, including work those
// handlers published in turn, has finished. Only meaningful once publishing
// has stopped or Close has been called.
func (b *Bus) Drain() {
	b.wg.Wait()
}
