package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/billing"
)

// GetActiveSubscription returns the tenant's newest non-cancelled
// subscription, or ErrNotFound when the tenant has none.
func (s *Store) GetActiveSubscription(ctx context.Context, tenantID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, plan, status, created_at
		 FROM subscriptions
		 WHERE tenant_id = $1 AND status != 'cancelled'
		 ORDER BY created_at DESC
		 LIMIT 1`, tenantID,
	).Scan(&sub.ID, &sub.TenantID, &sub.Plan, &sub.Status, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription for tenant %s: %w", tenantID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return &sub, nil
}
