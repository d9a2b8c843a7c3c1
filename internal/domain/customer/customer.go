// Package customer defines customer and order domain entities.
package customer

import (
	"encoding/json"
	"time"
)

// Customer is a shopper known to a tenant, keyed by the upstream
// commerce platform's customer identifier.
type Customer struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email,omitempty"`
	TotalOrders int        `json:"total_orders"`
	TotalSpent  float64    `json:"total_spent"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DaysSinceLastOrder returns whole days since the customer's last order,
// or nil if the customer has never ordered.
func (c *Customer) DaysSinceLastOrder(now time.Time) *int {
	if c.LastOrderAt == nil {
		return nil
	}
	days := int(now.Sub(*c.LastOrderAt).Hours() / 24)
	return &days
}

// IsRepeatBuyer reports whether the customer has more than one order.
func (c *Customer) IsRepeatBuyer() bool {
	return c.TotalOrders > 1
}

// Order is one historical order for a customer.
type Order struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ExternalID string          `json:"external_id"`
	CustomerID string          `json:"customer_id,omitempty"`
	TotalPrice float64         `json:"total_price"`
	LineItems  json.RawMessage `json:"line_items,omitempty"`
	PlacedAt   *time.Time      `json:"placed_at,omitempty"`
}
