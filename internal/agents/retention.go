package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/service"
)

// lapsedAfterDays is the silence threshold after which a repeat buyer
// counts as at risk of churning.
const lapsedAfterDays = 45

// Retention works on keeping known buyers: thank-you touches after a
// fulfilled order and win-back offers for lapsed repeat buyers.
type Retention struct {
	reasoning *service.ReasoningService
	factory   commerce.ClientFactory
}

var _ agent.Agent = (*Retention)(nil)

// NewRetention creates the retention agent.
func NewRetention(r *service.ReasoningService, factory commerce.ClientFactory) *Retention {
	return &Retention{reasoning: r, factory: factory}
}

func (a *Retention) Type() agent.Type { return agent.TypeRetention }

func (a *Retention) Priority() int { return agent.Defaults[agent.TypeRetention].Priority }

func (a *Retention) SubscribedEvents() []event.Type {
	return []event.Type{event.TypeOrderFulfilled, event.TypeCustomerUpdated}
}

func (a *Retention) IsEnabled(ac *agent.Context) bool {
	return ac.ConfigFor(agent.TypeRetention).Enabled
}

// CanHandle requires a customer with purchase history; there is nothing
// to retain otherwise.
func (a *Retention) CanHandle(ac *agent.Context) bool {
	return ac.Customer != nil && ac.Customer.TotalOrders > 0
}

func (a *Retention) Decide(ctx context.Context, ac *agent.Context) (*agent.Decision, error) {
	cfg := ac.ConfigFor(agent.TypeRetention)

	days := ac.Customer.DaysSinceLastOrder
	lapsed := days != nil && *days >= lapsedAfterDays

	prompt := fmt.Sprintf(`Evaluate a retention opportunity.

%s
Lapsed (>= %d days silent): %t
Recent orders on file: %d
Event: %s

Choose ONE action:
- "winback_discount": a personal discount to bring a lapsed buyer back (params: percent 10-25)
- "thank_you_followup": a thank-you touch after a fulfilled order (params: delay_days 3-14)
- "tag_vip": tag a high-value customer for manual attention
- "NO_ACTION": no intervention needed

Respond with JSON only:
{"action": "...", "params": {...}, "reasoning": "...", "confidence": 0.0-1.0, "estimated_impact": dollars}`,
		customerSummary(ac), lapsedAfterDays, lapsed, len(ac.RecentOrders), ac.Event.Type)

	res, err := a.reasoning.Complete(ctx, ac.Tenant, service.CompletionRequest{
		ModelID:      cfg.Model,
		Prompt:       prompt,
		System:       "You are a customer retention assistant for an online shop. Reserve discounts for genuinely lapsed buyers.",
		MaxTokens:    500,
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("retention decide: %w", err)
	}

	return parseDecision(res.Text, res)
}

func (a *Retention) Execute(ctx context.Context, d *agent.Decision, ac *agent.Context) (map[string]any, error) {
	client, err := commerceFor(a.factory, ac)
	if err != nil {
		return nil, err
	}

	switch d.Action {
	case "winback_discount":
		percent := clampPercent(paramInt(d.Params, "percent", 15), 10, 25)
		now := time.Now()
		discount, err := client.CreateDiscount(ctx, commerce.DiscountRequest{
			Title:              "We miss you",
			ValuePercent:       percent,
			CustomerExternalID: ac.Customer.ExternalID,
			StartsAt:           now,
			EndsAt:             now.Add(14 * 24 * time.Hour),
			UsageLimit:         1,
		})
		if err != nil {
			return nil, fmt.Errorf("create winback discount: %w", err)
		}
		return map[string]any{"discount_code": discount.Code, "percent": percent}, nil

	case "thank_you_followup":
		delay := paramInt(d.Params, "delay_days", 7)
		if err := client.ScheduleFollowup(ctx, commerce.FollowupRequest{
			Kind:               "thank_you",
			CustomerExternalID: ac.Customer.ExternalID,
			DelayDays:          delay,
		}); err != nil {
			return nil, fmt.Errorf("schedule thank you: %w", err)
		}
		return map[string]any{"followup": "thank_you", "delay_days": delay}, nil

	case "tag_vip":
		if err := client.TagCustomer(ctx, ac.Customer.ExternalID, []string{"vip"}); err != nil {
			return nil, fmt.Errorf("tag vip: %w", err)
		}
		return map[string]any{"tagged": "vip"}, nil

	default:
		return nil, fmt.Errorf("unknown retention action %q", d.Action)
	}
}
