// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/billing"
	"github.com/axiome/agentcore/internal/domain/cost"
	"github.com/axiome/agentcore/internal/domain/customer"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/domain/tenant"
)

// DeadLetter is an event that exhausted queue redelivery.
type DeadLetter struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	TenantID   string    `json:"tenant_id"`
	EventType  string    `json:"event_type"`
	Payload    []byte    `json:"payload"`
	Error      string    `json:"error"`
	RetryCount int       `json:"retry_count"`
	FailedAt   time.Time `json:"failed_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Store is the port interface for durable persistence used by the core.
type Store interface {
	// Tenants
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)

	// Customers and orders (read-only history lookups)
	GetCustomerByExternalID(ctx context.Context, tenantID, externalID string) (*customer.Customer, error)
	GetCustomerByEmail(ctx context.Context, tenantID, email string) (*customer.Customer, error)
	RecentOrdersForCustomer(ctx context.Context, tenantID, externalCustomerID string, limit int) ([]customer.Order, error)

	// Events
	CreateEvent(ctx context.Context, ev *event.Event) error
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	RecentEventsForCustomer(ctx context.Context, tenantID, email string, limit int) ([]event.Event, error)
	MarkEventProcessed(ctx context.Context, id string) error
	CountEventsSince(ctx context.Context, tenantID string, since time.Time) (int, error)

	// Agent configuration
	GetAgentConfigs(ctx context.Context, tenantID string) ([]agent.Config, error)

	// Runs (append-only audit trail) and derived budget/rate aggregates
	CreateRun(ctx context.Context, r *agent.Run) error
	RecentRuns(ctx context.Context, tenantID string, limit int) ([]agent.Run, error)
	TenantCostSince(ctx context.Context, tenantID string, since time.Time) (float64, error)
	AgentCostSince(ctx context.Context, tenantID string, agentType agent.Type, since time.Time) (float64, error)
	ActionCountSince(ctx context.Context, tenantID string, agentType agent.Type, since time.Time) (int, error)
	CostSummary(ctx context.Context, tenantID string, since time.Time) (*cost.Summary, error)

	// Best-effort tenant metrics sink. Not authoritative for budget math.
	IncrementDailyMetrics(ctx context.Context, tenantID string, actions int, costUSD float64) error

	// Idempotency ledger (insert-if-absent)
	InsertProcessed(ctx context.Context, key string) error
	InsertProcessedBatch(ctx context.Context, keys []string) error
	IsProcessed(ctx context.Context, key string) (bool, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Billing (external collaborator's data, read-only for the gate)
	GetActiveSubscription(ctx context.Context, tenantID string) (*billing.Subscription, error)

	// Dead letters
	InsertDeadLetter(ctx context.Context, dl *DeadLetter) error
	ListDeadLetters(ctx context.Context, tenantID string, limit int) ([]DeadLetter, error)
	ResolveDeadLetter(ctx context.Context, id string) error
}
