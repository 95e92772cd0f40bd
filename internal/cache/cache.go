// Package cache provides a TTL-bounded read cache used in front of the order
// store. Two implementations exist: an in-memory map with lazy expiry and a
// Redis-backed cache with server-side expiry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-value cache with absolute expiry. An entry is logically
// absent once its TTL has elapsed, even if an implementation still holds it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	Has(ctx context.Context, key string) bool
}
