package postgres

import (
	"context"
	"fmt"

	"github.com/axiome/agentcore/internal/port/database"
)

// InsertDeadLetter upserts a dead-lettered event. Re-failing the same
// event updates its error and retry count in place.
func (s *Store) InsertDeadLetter(ctx context.Context, dl *database.DeadLetter) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dead_letters (event_id, tenant_id, event_type, payload, error, retry_count, failed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (event_id) DO UPDATE SET
		   error = EXCLUDED.error,
		   retry_count = EXCLUDED.retry_count,
		   failed_at = now()`,
		dl.EventID, dl.TenantID, dl.EventType, dl.Payload, dl.Error, dl.RetryCount)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// ListDeadLetters returns unresolved dead letters for a tenant, newest first.
func (s *Store) ListDeadLetters(ctx context.Context, tenantID string, limit int) ([]database.DeadLetter, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, tenant_id, event_type, payload, error, retry_count, failed_at, resolved_at
		 FROM dead_letters
		 WHERE tenant_id = $1 AND resolved_at IS NULL
		 ORDER BY failed_at DESC
		 LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var entries []database.DeadLetter
	for rows.Next() {
		var dl database.DeadLetter
		if err := rows.Scan(&dl.ID, &dl.EventID, &dl.TenantID, &dl.EventType,
			&dl.Payload, &dl.Error, &dl.RetryCount, &dl.FailedAt, &dl.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		entries = append(entries, dl)
	}
	return entries, rows.Err()
}

// ResolveDeadLetter stamps a dead letter as handled.
func (s *Store) ResolveDeadLetter(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE dead_letters SET resolved_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("resolve dead letter %s: %w", id, err)
	}
	return nil
}
