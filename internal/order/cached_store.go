package order

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/cache"
)

// CachedStore decorates a Store with a TTL-bounded read cache for point
// lookups. Saves write through; status updates invalidate so the next read
// can never observe a status older than the last committed write. FindAll
// and FindByCustomerID always consult the store.
type CachedStore struct {
	store  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger

	// mu orders cache writes against invalidations; gen counts
	// invalidations. A snapshot read from the store before an invalidation
	// must not be written to the cache after it, or reads until TTL expiry
	// would serve the pre-update status.
	mu  sync.Mutex
	gen uint64
}

func NewCachedStore(store Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("cached_store"),
	}
}

func (s *CachedStore) Save(ctx context.Context, o *Order) error {
	gen := s.generation()
	if err := s.store.Save(ctx, o); err != nil {
		return err
	}
	s.populate(ctx, o, gen)
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (*Order, error) {
	gen := s.generation()

	if raw, ok := s.cache.Get(ctx, cacheKey(id)); ok {
		var o Order
		if err := json.Unmarshal(raw, &o); err == nil {
			s.logger.Debug("served from cache", zap.String("order_id", id))
			return &o, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		s.cache.Invalidate(ctx, cacheKey(id))
	}

	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, o, gen)
	return o, nil
}

func (s *CachedStore) FindAll(ctx context.Context) ([]*Order, error) {
	return s.store.FindAll(ctx)
}

func (s *CachedStore) FindByCustomerID(ctx context.Context, customerID string) ([]*Order, error) {
	return s.store.FindByCustomerID(ctx, customerID)
}

func (s *CachedStore) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.gen++
	s.cache.Invalidate(ctx, cacheKey(id))
	s.mu.Unlock()
	return o, nil
}

// populate writes the snapshot to the cache unless an invalidation ran
// since gen was captured; a snapshot read across an invalidation may be
// stale, so the next read has to go to the store instead.
func (s *CachedStore) populate(ctx context.Context, o *Order, gen uint64) {
	raw, err := json.Marshal(o)
	if err != nil {
		s.logger.Warn("failed to encode order for cache", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.Debug("skipping cache populate after invalidation", zap.String("order_id", o.ID))
		return
	}
	s.cache.Set(ctx, cacheKey(o.ID), raw, s.ttl)
}

func (s *CachedStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func cacheKey(id string) string { return "order:" + id }
