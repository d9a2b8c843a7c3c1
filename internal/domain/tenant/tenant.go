// Package tenant defines the tenant domain model for multi-tenancy.
// A tenant is one connected shop with its own budgets and configuration.
package tenant

import "time"

// Settings holds per-tenant operational configuration.
type Settings struct {
	ShopDomain            string  `json:"shop_domain"`
	DailyBudgetUSD        float64 `json:"daily_budget_usd,omitempty"`
	MonthlyBudgetUSD      float64 `json:"monthly_budget_usd,omitempty"`
	NotificationThreshold float64 `json:"notification_threshold,omitempty"`
}

// Tenant represents an isolated tenant in the system.
// AccessToken holds the upstream commerce credential, encrypted at rest.
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	AccessToken string    `json:"-"`
	Settings    Settings  `json:"settings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
