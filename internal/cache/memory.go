package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache. Expiry is checked lazily at read time;
// there is no background sweep.
type Memory struct {
	mu     sync.Mutex
	store  map[string]entry
	logger *zap.Logger
	now    func() time.Time
}

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		store:  make(map[string]entry),
		logger: logger.Named("cache"),
		now:    time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[key]
	if !ok {
		m.logger.Debug("cache miss", zap.String("key", key))
		return nil, false
	}
	if !e.expiresAt.After(m.now()) {
		delete(m.store, key)
		m.logger.Debug("cache miss", zap.String("key", key))
		return nil, false
	}
	m.logger.Debug("cache hit", zap.String("key", key))
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	m.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
}

func (m *Memory) Invalidate(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	m.logger.Debug("cache invalidated", zap.String("key", key))
}

func (m *Memory) Has(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[key]
	if !ok {
		return false
	}
	if !e.expiresAt.After(m.now()) {
		delete(m.store, key)
		return false
	}
	return true
}
