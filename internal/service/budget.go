package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/tenant"
	"github.com/axiome/agentcore/internal/port/database"
)

// BudgetCheck is the guard's verdict before one agent run.
type BudgetCheck struct {
	Allowed bool
	Reason  string
}

// BudgetGuard enforces spend ceilings before each agent run. All spend
// figures derive from the run ledger; there is no separate counter to
// drift out of sync.
type BudgetGuard struct {
	store             database.Store
	logger            *slog.Logger
	now               func() time.Time
	absoluteDailyUSD  float64
	defaultDailyUSD   float64
	defaultMonthlyUSD float64
}

// NewBudgetGuard creates the guard with the platform ceiling and the
// tenant defaults applied when a tenant sets no budget of its own.
func NewBudgetGuard(store database.Store, logger *slog.Logger, absoluteDailyUSD, defaultDailyUSD, defaultMonthlyUSD float64) *BudgetGuard {
	return &BudgetGuard{
		store:             store,
		logger:            logger,
		now:               time.Now,
		absoluteDailyUSD:  absoluteDailyUSD,
		defaultDailyUSD:   defaultDailyUSD,
		defaultMonthlyUSD: defaultMonthlyUSD,
	}
}

// Check evaluates the spend ceilings tightest scope first: the agent's
// own daily cap, then the tenant's daily and monthly budgets, then the
// platform-wide ceiling. The first exceeded ceiling denies.
func (g *BudgetGuard) Check(ctx context.Context, t *tenant.Tenant, agentType agent.Type, cfg agent.Config) (BudgetCheck, error) {
	now := g.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if cfg.MaxCostPerDayUSD > 0 {
		spent, err := g.store.AgentCostSince(ctx, t.ID, agentType, dayStart)
		if err != nil {
			return BudgetCheck{}, fmt.Errorf("agent daily spend: %w", err)
		}
		if spent >= cfg.MaxCostPerDayUSD {
			return g.deny(t.ID, agentType, "agent_daily_budget_exceeded", spent, cfg.MaxCostPerDayUSD), nil
		}
	}

	tenantDaily, err := g.store.TenantCostSince(ctx, t.ID, dayStart)
	if err != nil {
		return BudgetCheck{}, fmt.Errorf("tenant daily spend: %w", err)
	}

	dailyBudget := t.Settings.DailyBudgetUSD
	if dailyBudget <= 0 {
		dailyBudget = g.defaultDailyUSD
	}
	if tenantDaily >= dailyBudget {
		return g.deny(t.ID, agentType, "tenant_daily_budget_exceeded", tenantDaily, dailyBudget), nil
	}

	monthlyBudget := t.Settings.MonthlyBudgetUSD
	if monthlyBudget <= 0 {
		monthlyBudget = g.defaultMonthlyUSD
	}
	tenantMonthly, err := g.store.TenantCostSince(ctx, t.ID, monthStart)
	if err != nil {
		return BudgetCheck{}, fmt.Errorf("tenant monthly spend: %w", err)
	}
	if tenantMonthly >= monthlyBudget {
		return g.deny(t.ID, agentType, "tenant_monthly_budget_exceeded", tenantMonthly, monthlyBudget), nil
	}

	if tenantDaily >= g.absoluteDailyUSD {
		return g.deny(t.ID, agentType, "absolute_daily_ceiling_exceeded", tenantDaily, g.absoluteDailyUSD), nil
	}

	return BudgetCheck{Allowed: true}, nil
}

// RemainingDaily returns how much of the tenant's daily budget is left,
// for pre-flight cost estimation. Never negative.
func (g *BudgetGuard) RemainingDaily(ctx context.Context, t *tenant.Tenant) (float64, error) {
	now := g.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	spent, err := g.store.TenantCostSince(ctx, t.ID, dayStart)
	if err != nil {
		return 0, fmt.Errorf("tenant daily spend: %w", err)
	}

	budget := t.Settings.DailyBudgetUSD
	if budget <= 0 {
		budget = g.defaultDailyUSD
	}
	if budget > g.absoluteDailyUSD {
		budget = g.absoluteDailyUSD
	}
	if remaining := budget - spent; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (g *BudgetGuard) deny(tenantID string, agentType agent.Type, reason string, spent, limit float64) BudgetCheck {
	g.logger.Warn("budget denied",
		slog.String("tenant_id", tenantID),
		slog.String("agent_type", string(agentType)),
		slog.String("reason", reason),
		slog.Float64("spent_usd", spent),
		slog.Float64("limit_usd", limit))
	return BudgetCheck{Allowed: false, Reason: reason}
}
