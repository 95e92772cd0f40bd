package order

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPaid           Status = "PAID"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
	StatusStockConfirmed Status = "STOCK_CONFIRMED"
	StatusStockFailed    Status = "STOCK_FAILED"
	StatusCompleted      Status = "COMPLETED"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrEmptyOrder      = errors.New("order must have at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be a positive integer")
)

// IsTerminal reports whether no further stage will act on an order in this
// status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaymentFailed, StatusStockFailed, StatusCompleted:
		return true
	}
	return false
}

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order is the canonical record held by the store. Only Status and UpdatedAt
// change after creation, and only through Store.UpdateStatus.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Items      []Item    `json:"items"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidateItems checks creation input: at least one item, every quantity
// positive.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func (o *Order) clone() *Order {
	cp := *o
	cp.Items = make([]Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
