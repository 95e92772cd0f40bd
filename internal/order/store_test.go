package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrder(id, customerID string) *Order {
	now := time.Now()
	return &Order{
		ID:         id,
		CustomerID: customerID,
		Items:      []Item{{ProductID: "brand1-product-abc", Quantity: 2}},
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMemoryStore_SaveAndFindByID(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	o := newTestOrder("order-1", "c1")
	require.NoError(t, store.Save(ctx, o))

	found, err := store.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
	assert.Equal(t, o.CustomerID, found.CustomerID)
	assert.Equal(t, o.Items, found.Items)
	assert.Equal(t, StatusPending, found.Status)
}

func TestMemoryStore_FindByID_NotFound(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	found, err := store.FindByID(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, found)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	o := newTestOrder("order-1", "c1")
	require.NoError(t, store.Save(ctx, o))

	// Mutating either the saved value or a fetched snapshot must not leak
	// into the canonical record.
	o.Status = StatusCompleted
	o.Items[0].Quantity = 99

	first, err := store.FindByID(ctx, "order-1")
	require.NoError(t, err)
	first.Status = StatusStockFailed
	first.Items[0].Quantity = 42

	second, err := store.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, second.Status)
	assert.Equal(t, 2, second.Items[0].Quantity)
}

func TestMemoryStore_FindAll_InsertionOrder(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestOrder("order-1", "c1")))
	require.NoError(t, store.Save(ctx, newTestOrder("order-2", "c2")))
	require.NoError(t, store.Save(ctx, newTestOrder("order-3", "c1")))

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "order-1", all[0].ID)
	assert.Equal(t, "order-2", all[1].ID)
	assert.Equal(t, "order-3", all[2].ID)
}

func TestMemoryStore_Save_OverwriteKeepsOneRecord(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestOrder("order-1", "c1")))
	updated := newTestOrder("order-1", "c1")
	updated.Status = StatusPaid
	require.NoError(t, store.Save(ctx, updated))

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StatusPaid, all[0].Status)
}

func TestMemoryStore_FindByCustomerID(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestOrder("order-1", "c1")))
	require.NoError(t, store.Save(ctx, newTestOrder("order-2", "c2")))
	require.NoError(t, store.Save(ctx, newTestOrder("order-3", "c1")))

	c1Orders, err := store.FindByCustomerID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c1Orders, 2)
	for _, o := range c1Orders {
		assert.Equal(t, "c1", o.CustomerID)
	}

	c2Orders, err := store.FindByCustomerID(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, c2Orders, 1)
	assert.Equal(t, "order-2", c2Orders[0].ID)

	none, err := store.FindByCustomerID(ctx, "c3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	o := newTestOrder("order-1", "c1")
	require.NoError(t, store.Save(ctx, o))

	updated, err := store.UpdateStatus(ctx, "order-1", StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	found, err := store.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, found.Status)
}

func TestMemoryStore_UpdateStatus_NotFound(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	updated, err := store.UpdateStatus(context.Background(), "absent", StatusPaid)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, updated)
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []Item
		wantErr error
	}{
		{"valid", []Item{{ProductID: "p1", Quantity: 1}}, nil},
		{"empty", []Item{}, ErrEmptyOrder},
		{"nil", nil, ErrEmptyOrder},
		{"zero quantity", []Item{{ProductID: "p1", Quantity: 0}}, ErrInvalidQuantity},
		{"negative quantity", []Item{{ProductID: "p1", Quantity: -1}}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
	assert.False(t, StatusStockConfirmed.IsTerminal())
	assert.True(t, StatusPaymentFailed.IsTerminal())
	assert.True(t, StatusStockFailed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
}
