// Package messaging defines the outbound publisher port. The in-process bus
// is the only delivery path for the core pipeline; a Publisher receives a
// one-way copy of every published event for external consumers.
package messaging

import (
	"context"

	"github.com/example/marketplace-orders/internal/event"
)

type Publisher interface {
	Publish(ctx context.Context, evt event.Event) error
}
