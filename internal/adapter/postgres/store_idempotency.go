package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// InsertProcessed records a processed key. Insert is a no-op on conflict,
// which is what makes re-marking after a redelivery harmless.
func (s *Store) InsertProcessed(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_events (event_key, processed_at)
		 VALUES ($1, now())
		 ON CONFLICT (event_key) DO NOTHING`, key)
	if err != nil {
		return fmt.Errorf("insert processed %s: %w", key, err)
	}
	return nil
}

// InsertProcessedBatch records many processed keys in one round trip.
func (s *Store) InsertProcessedBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, key := range keys {
		batch.Queue(
			`INSERT INTO processed_events (event_key, processed_at)
			 VALUES ($1, now())
			 ON CONFLICT (event_key) DO NOTHING`, key)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert processed batch: %w", err)
	}
	return nil
}

// IsProcessed reports whether a key is in the durable ledger.
func (s *Store) IsProcessed(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is processed %s: %w", key, err)
	}
	return exists, nil
}

// DeleteProcessedBefore garbage-collects ledger entries older than cutoff
// and returns the number removed.
func (s *Store) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM processed_events WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete processed before: %w", err)
	}
	return tag.RowsAffected(), nil
}
