package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/port/cache"
	"github.com/axiome/agentcore/internal/port/database"
)

// keyPrefix namespaces dedup keys so the ledger can host other key
// families later without collisions.
const keyPrefix = "agent:"

// marker is the cache value for a processed key. Only presence matters.
var marker = []byte{1}

// Idempotency is the two-tier dedup layer: an in-process TTL cache in
// front of the durable processed-events ledger. Reads fail open; a
// degraded dedup layer must never halt event intake.
type Idempotency struct {
	cache  cache.Cache
	store  database.Store
	logger *slog.Logger
	ttl    time.Duration
}

// NewIdempotency creates the dedup layer.
func NewIdempotency(c cache.Cache, store database.Store, logger *slog.Logger, ttl time.Duration) *Idempotency {
	return &Idempotency{cache: c, store: store, logger: logger, ttl: ttl}
}

// Key derives the dedup key for an event id.
func Key(eventID string) string {
	return keyPrefix + eventID
}

// IsProcessed reports whether the event was already handled. Cache hit
// answers without touching the database. Ledger read errors degrade to
// "not processed".
func (i *Idempotency) IsProcessed(ctx context.Context, eventID string) bool {
	key := Key(eventID)

	if _, ok, err := i.cache.Get(ctx, key); err == nil && ok {
		return true
	}

	done, err := i.store.IsProcessed(ctx, key)
	if err != nil {
		i.logger.Warn("idempotency ledger read failed, assuming unprocessed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
		return false
	}
	if done {
		// Repopulate the cache so retried deliveries stay cheap.
		_ = i.cache.Set(ctx, key, marker, i.ttl)
	}
	return done
}

// MarkProcessed records the event as handled in both tiers. The cache
// write is best effort; the ledger write is the one that counts.
func (i *Idempotency) MarkProcessed(ctx context.Context, eventID string) error {
	key := Key(eventID)
	_ = i.cache.Set(ctx, key, marker, i.ttl)

	if err := i.store.InsertProcessed(ctx, key); err != nil {
		return fmt.Errorf("record processed event %s: %w", eventID, err)
	}
	return nil
}

// MarkProcessedBatch records many events at once, for backfill paths.
func (i *Idempotency) MarkProcessedBatch(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	keys := make([]string, len(eventIDs))
	for n, id := range eventIDs {
		keys[n] = Key(id)
		_ = i.cache.Set(ctx, keys[n], marker, i.ttl)
	}
	if err := i.store.InsertProcessedBatch(ctx, keys); err != nil {
		return fmt.Errorf("record processed batch: %w", err)
	}
	return nil
}

// Cleanup deletes ledger rows older than the retention window and
// returns the number removed.
func (i *Idempotency) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	n, err := i.store.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup processed ledger: %w", err)
	}
	return n, nil
}
