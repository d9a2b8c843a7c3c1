// Package agent defines the decision-unit contract: agent types, decisions,
// run audit records, per-tenant configuration and the per-event context.
package agent

import (
	"context"
	"time"

	"github.com/axiome/agentcore/internal/domain/customer"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/domain/tenant"
)

// Type identifies a decision unit.
type Type string

const (
	TypeConversion  Type = "conversion"
	TypeRetention   Type = "retention"
	TypeSupport     Type = "support"
	TypeAcquisition Type = "acquisition"
	TypeOperations  Type = "operations"
)

// NoAction is the distinguished decision action meaning "evaluated,
// nothing to do". It short-circuits execution.
const NoAction = "NO_ACTION"

// Decision is the outcome of one agent's decide phase.
type Decision struct {
	Action          string         `json:"action"`
	Params          map[string]any `json:"params,omitempty"`
	Reasoning       string         `json:"reasoning"`
	Confidence      float64        `json:"confidence"`
	EstimatedImpact float64        `json:"estimated_impact"`
	TokensUsed      int            `json:"tokens_used"`
	CostUSD         float64        `json:"cost_usd"`
}

// IsNoAction reports whether the decision carries no side effect.
func (d *Decision) IsNoAction() bool {
	return d == nil || d.Action == NoAction
}

// RunStatus classifies the outcome of one agent invocation.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunSkipped RunStatus = "skipped"
)

// Run is the immutable audit record of one agent invocation against one
// event. Created exactly once per attempted (event, agent) pair.
type Run struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	AgentType      Type           `json:"agent_type"`
	TriggerEventID string         `json:"trigger_event_id"`
	Decision       *Decision      `json:"decision,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	DurationMs     int64          `json:"duration_ms"`
	TokensUsed     int            `json:"tokens_used"`
	CostUSD        float64        `json:"cost_usd"`
	Status         RunStatus      `json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Config is the per-tenant configuration snapshot for one agent.
type Config struct {
	AgentType         Type    `json:"agent_type"`
	Enabled           bool    `json:"enabled"`
	Priority          int     `json:"priority"`
	MaxActionsPerHour int     `json:"max_actions_per_hour"`
	Model             string  `json:"model"`
	MaxCostPerDayUSD  float64 `json:"max_cost_per_day_usd"`
}

// Defaults maps each agent type to its baseline configuration, applied
// when a tenant has no stored override.
var Defaults = map[Type]Config{
	TypeConversion:  {AgentType: TypeConversion, Enabled: true, Priority: 1, MaxActionsPerHour: 100, Model: "gpt-4o-mini", MaxCostPerDayUSD: 5},
	TypeRetention:   {AgentType: TypeRetention, Enabled: true, Priority: 2, MaxActionsPerHour: 50, Model: "gpt-4o-mini", MaxCostPerDayUSD: 10},
	TypeSupport:     {AgentType: TypeSupport, Enabled: true, Priority: 1, MaxActionsPerHour: 200, Model: "gpt-4o-mini", MaxCostPerDayUSD: 8},
	TypeAcquisition: {AgentType: TypeAcquisition, Enabled: false, Priority: 3, MaxActionsPerHour: 30, Model: "gpt-4o", MaxCostPerDayUSD: 15},
	TypeOperations:  {AgentType: TypeOperations, Enabled: false, Priority: 4, MaxActionsPerHour: 20, Model: "gpt-4o", MaxCostPerDayUSD: 10},
}

// DefaultConfig returns the baseline configuration for an agent type.
func DefaultConfig(t Type) Config {
	if c, ok := Defaults[t]; ok {
		return c
	}
	return Config{AgentType: t, Priority: 99, MaxActionsPerHour: 50, Model: "gpt-4o-mini", MaxCostPerDayUSD: 5}
}

// CustomerContext is the resolved customer view exposed to agents.
// A nil CustomerContext means "no personalization possible", not an error.
type CustomerContext struct {
	ID                 string
	ExternalID         string
	Email              string
	TotalOrders        int
	TotalSpent         float64
	DaysSinceLastOrder *int // nil when the customer has no prior order
	IsRepeatBuyer      bool
	Tags               []string
}

// Context is the ephemeral, read-only decision context built per event.
// It is never persisted as a unit.
type Context struct {
	Tenant       *tenant.Tenant
	Event        *event.Event
	Customer     *CustomerContext
	RecentEvents []event.Event
	RecentOrders []customer.Order
	AccessToken  string
	Configs      map[Type]Config
}

// ConfigFor returns the configuration snapshot for an agent type,
// falling back to the static defaults.
func (c *Context) ConfigFor(t Type) Config {
	if cfg, ok := c.Configs[t]; ok {
		return cfg
	}
	return DefaultConfig(t)
}

// Agent is the capability set every decision unit implements.
// Decide must be called before Execute; Execute is only reached for a
// non-NO_ACTION decision.
type Agent interface {
	Type() Type
	Priority() int
	SubscribedEvents() []event.Type

	IsEnabled(ac *Context) bool
	CanHandle(ac *Context) bool
	Decide(ctx context.Context, ac *Context) (*Decision, error)
	Execute(ctx context.Context, d *Decision, ac *Context) (map[string]any, error)
}
