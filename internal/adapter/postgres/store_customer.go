package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/customer"
)

const customerColumns = `id, tenant_id, external_id, email, total_orders, total_spent, last_order_at, tags, created_at`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.ExternalID, &c.Email,
		&c.TotalOrders, &c.TotalSpent, &c.LastOrderAt, &c.Tags, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomerByExternalID looks up a customer by the upstream platform id.
func (s *Store) GetCustomerByExternalID(ctx context.Context, tenantID, externalID string) (*customer.Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", externalID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get customer by external id: %w", err)
	}
	return c, nil
}

// GetCustomerByEmail looks up a customer by email address.
func (s *Store) GetCustomerByEmail(ctx context.Context, tenantID, email string) (*customer.Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE tenant_id = $1 AND email = $2`, tenantID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

// RecentOrdersForCustomer returns the most recent orders for a customer,
// newest first, bounded by limit.
func (s *Store) RecentOrdersForCustomer(ctx context.Context, tenantID, externalCustomerID string, limit int) ([]customer.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, external_id, customer_id, total_price, line_items, placed_at
		 FROM orders
		 WHERE tenant_id = $1 AND customer_id = $2
		 ORDER BY placed_at DESC NULLS LAST
		 LIMIT $3`, tenantID, externalCustomerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	var orders []customer.Order
	for rows.Next() {
		var o customer.Order
		if err := rows.Scan(&o.ID, &o.TenantID, &o.ExternalID, &o.CustomerID,
			&o.TotalPrice, &o.LineItems, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
