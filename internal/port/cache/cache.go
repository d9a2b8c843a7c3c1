// Package cache defines the port for the process-local cache layer.
//
// The cache is an optimization in front of durable storage, never the
// source of truth. A miss, an eviction, or a cold restart must always be
// recoverable by falling through to the backing store.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-value cache with per-entry TTL. Get reports presence
// separately from errors so callers can distinguish a miss from a broken
// cache.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
