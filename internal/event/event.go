// Package event defines the event kinds and payloads that flow through the
// fulfillment pipeline. Events are immutable values; they are delivered
// in-process and never persisted.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace-orders/internal/order"
)

// Kind identifies what occurred.
type Kind string

const (
	KindOrderCreated      Kind = "order.created"
	KindPaymentSuccess    Kind = "payment.success"
	KindPaymentFailed     Kind = "payment.failed"
	KindStockUpdated      Kind = "stock.updated"
	KindStockFailed       Kind = "stock.failed"
	KindDeliveryScheduled Kind = "delivery.scheduled"
)

// TerminalKinds are the kinds that end an order's pipeline.
var TerminalKinds = []Kind{
	KindPaymentFailed,
	KindStockFailed,
	KindDeliveryScheduled,
}

// Envelope carries the fields common to every event. RequestID is an opaque
// end-to-end tracing token propagated from the originating command; it may
// be empty.
type Envelope struct {
	EventID   string `json:"event_id"`
	OrderID   string `json:"order_id"`
	Timestamp int64  `json:"timestamp"` // ms epoch
	RequestID string `json:"request_id,omitempty"`
}

// Event is implemented by every event payload.
type Event interface {
	Kind() Kind
	Meta() Envelope
}

// Meta returns the envelope itself; embedding Envelope therefore gives every
// payload struct the Event metadata accessor for free.
func (e Envelope) Meta() Envelope { return e }

// NewEnvelope builds an envelope with a fresh event id and the current time.
// The request id is carried over from the event (or command) that caused
// this one.
func NewEnvelope(orderID, requestID string) Envelope {
	return Envelope{
		EventID:   uuid.New().String(),
		OrderID:   orderID,
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	}
}

type OrderCreated struct {
	Envelope
	CustomerID string       `json:"customer_id"`
	Items      []order.Item `json:"items"`
}

type PaymentSuccess struct {
	Envelope
	Amount int `json:"amount"`
}

type PaymentFailed struct {
	Envelope
	Reason string `json:"reason"`
}

type StockUpdated struct {
	Envelope
}

type StockFailed struct {
	Envelope
	Reason string `json:"reason"`
}

type DeliveryScheduled struct {
	Envelope
	EstimatedDelivery string `json:"estimated_delivery"` // RFC3339
}

func (OrderCreated) Kind() Kind      { return KindOrderCreated }
func (PaymentSuccess) Kind() Kind    { return KindPaymentSuccess }
func (PaymentFailed) Kind() Kind     { return KindPaymentFailed }
func (StockUpdated) Kind() Kind      { return KindStockUpdated }
func (StockFailed) Kind() Kind       { return KindStockFailed }
func (DeliveryScheduled) Kind() Kind { return KindDeliveryScheduled }
