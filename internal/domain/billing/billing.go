// Package billing defines subscription and plan domain types consumed by
// the event eligibility gate. Plan management itself lives outside the core.
package billing

import "time"

// SubscriptionStatus is the lifecycle state of a tenant's subscription.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPending   SubscriptionStatus = "pending"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusFrozen    SubscriptionStatus = "frozen"
)

// Subscription links a tenant to a billing plan.
type Subscription struct {
	ID        string             `json:"id"`
	TenantID  string             `json:"tenant_id"`
	Plan      string             `json:"plan"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// PlanLimits caps what a plan may consume. -1 means unlimited.
type PlanLimits struct {
	MaxEventsPerDay        int
	MaxReasoningUSDPerMonth float64
}

// Plan describes one billing plan.
type Plan struct {
	ID     string
	Name   string
	Limits PlanLimits
}

var plans = map[string]Plan{
	"starter": {ID: "starter", Name: "Starter", Limits: PlanLimits{MaxEventsPerDay: 500, MaxReasoningUSDPerMonth: 20}},
	"growth":  {ID: "growth", Name: "Growth", Limits: PlanLimits{MaxEventsPerDay: 5000, MaxReasoningUSDPerMonth: 150}},
	"scale":   {ID: "scale", Name: "Scale", Limits: PlanLimits{MaxEventsPerDay: -1, MaxReasoningUSDPerMonth: -1}},
}

// GetPlan returns the plan for id, falling back to the starter plan.
func GetPlan(id string) Plan {
	if p, ok := plans[id]; ok {
		return p
	}
	return plans["starter"]
}
