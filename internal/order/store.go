package order

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the authoritative holder of order records, keyed by id.
type Store interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
}

// MemoryStore keeps orders in a mutex-guarded map for the lifetime of the
// process. FindAll returns records in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
	index  []string // insertion order
	logger *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*Order),
		logger: logger.Named("store"),
	}
}

// Save inserts or overwrites the record for o.ID. Records are copied in so
// the caller cannot mutate the canonical state afterwards.
func (s *MemoryStore) Save(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; !exists {
		s.index = append(s.index, o.ID)
	}
	s.orders[o.ID] = o.clone()
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.logger.Debug("served from memory store", zap.String("order_id", id))
	return o.clone(), nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Order, 0, len(s.index))
	for _, id := range s.index {
		all = append(all, s.orders[id].clone())
	}
	return all, nil
}

func (s *MemoryStore) FindByCustomerID(_ context.Context, customerID string) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*Order
	for _, id := range s.index {
		if o := s.orders[id]; o.CustomerID == customerID {
			matched = append(matched, o.clone())
		}
	}
	return matched, nil
}

// UpdateStatus sets the status and bumps UpdatedAt. Returns ErrNotFound
// without side effects when the order does not exist.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status Status) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return o.clone(), nil
}
