package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/event"
)

// CreateEvent inserts an inbound event. A duplicate upstream event id for
// the same tenant is a no-op; idempotent by design for at-least-once feeds.
func (s *Store) CreateEvent(ctx context.Context, ev *event.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, tenant_id, upstream_event_id, type, source, payload, received_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		 ON CONFLICT (tenant_id, upstream_event_id) DO NOTHING`,
		ev.ID, ev.TenantID, ev.UpstreamEventID, ev.Type, ev.Source, ev.Payload, ev.ReceivedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	var ev event.Event
	var upstream *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, upstream_event_id, type, source, payload, received_at, processed_at
		 FROM events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.TenantID, &upstream, &ev.Type, &ev.Source, &ev.Payload, &ev.ReceivedAt, &ev.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get event %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if upstream != nil {
		ev.UpstreamEventID = *upstream
	}
	return &ev, nil
}

// RecentEventsForCustomer returns the newest events carrying the given
// customer email in their payload, bounded by limit.
func (s *Store) RecentEventsForCustomer(ctx context.Context, tenantID, email string, limit int) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, COALESCE(upstream_event_id, ''), type, source, payload, received_at, processed_at
		 FROM events
		 WHERE tenant_id = $1
		   AND (payload->>'email' = $2 OR payload->'customer'->>'email' = $2)
		 ORDER BY received_at DESC
		 LIMIT $3`, tenantID, email, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.UpstreamEventID, &ev.Type,
			&ev.Source, &ev.Payload, &ev.ReceivedAt, &ev.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkEventProcessed stamps the event's processed_at. Already-stamped rows
// keep their original timestamp.
func (s *Store) MarkEventProcessed(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE events SET processed_at = now() WHERE id = $1 AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark event processed %s: %w", id, err)
	}
	return nil
}

// CountEventsSince counts a tenant's events received at or after since.
func (s *Store) CountEventsSince(ctx context.Context, tenantID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE tenant_id = $1 AND received_at >= $2`,
		tenantID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
