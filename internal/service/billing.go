package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/billing"
	"github.com/axiome/agentcore/internal/port/billingport"
	"github.com/axiome/agentcore/internal/port/database"
)

// BillingGate decides event admission from the tenant's subscription
// and plan ceilings. It reads billing data; it never mutates it.
type BillingGate struct {
	store  database.Store
	logger *slog.Logger
	now    func() time.Time
}

var _ billingport.Gate = (*BillingGate)(nil)

// NewBillingGate creates the gate.
func NewBillingGate(store database.Store, logger *slog.Logger) *BillingGate {
	return &BillingGate{store: store, logger: logger, now: time.Now}
}

// CanProcessEvent checks, in order: an active subscription exists, the
// plan's daily event quota is not exhausted, and the plan's monthly
// reasoning spend ceiling is not exhausted. A denial is terminal for
// the event; infrastructure errors are returned for retry instead.
func (g *BillingGate) CanProcessEvent(ctx context.Context, tenantID string) (billingport.Check, error) {
	sub, err := g.store.GetActiveSubscription(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return g.deny(tenantID, "no_subscription"), nil
		}
		return billingport.Check{}, fmt.Errorf("load subscription: %w", err)
	}
	if sub.Status != billing.StatusActive {
		return g.deny(tenantID, "subscription_"+string(sub.Status)), nil
	}

	plan := billing.GetPlan(sub.Plan)
	now := g.now()

	if plan.Limits.MaxEventsPerDay >= 0 {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		count, err := g.store.CountEventsSince(ctx, tenantID, dayStart)
		if err != nil {
			return billingport.Check{}, fmt.Errorf("count events: %w", err)
		}
		if count >= plan.Limits.MaxEventsPerDay {
			return g.deny(tenantID, "plan_daily_event_quota_exceeded"), nil
		}
	}

	if plan.Limits.MaxReasoningUSDPerMonth >= 0 {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		spent, err := g.store.TenantCostSince(ctx, tenantID, monthStart)
		if err != nil {
			return billingport.Check{}, fmt.Errorf("monthly spend: %w", err)
		}
		if spent >= plan.Limits.MaxReasoningUSDPerMonth {
			return g.deny(tenantID, "plan_monthly_reasoning_quota_exceeded"), nil
		}
	}

	return billingport.Check{Allowed: true}, nil
}

func (g *BillingGate) deny(tenantID, reason string) billingport.Check {
	g.logger.Info("event denied by billing gate",
		slog.String("tenant_id", tenantID),
		slog.String("reason", reason))
	return billingport.Check{Allowed: false, Reason: reason}
}
