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

// minCartValueUSD is the smallest abandoned cart worth intervening on.
// Below it the margin cannot carry a discount.
const minCartValueUSD = 20

// Conversion nudges shoppers who started but did not finish a checkout.
type Conversion struct {
	reasoning *service.ReasoningService
	factory   commerce.ClientFactory
}

var _ agent.Agent = (*Conversion)(nil)

// NewConversion creates the conversion agent.
func NewConversion(r *service.ReasoningService, factory commerce.ClientFactory) *Conversion {
	return &Conversion{reasoning: r, factory: factory}
}

func (a *Conversion) Type() agent.Type { return agent.TypeConversion }

func (a *Conversion) Priority() int { return agent.Defaults[agent.TypeConversion].Priority }

func (a *Conversion) SubscribedEvents() []event.Type {
	return []event.Type{event.TypeCheckoutStarted, event.TypeCartUpdated}
}

func (a *Conversion) IsEnabled(ac *agent.Context) bool {
	return ac.ConfigFor(agent.TypeConversion).Enabled
}

// CanHandle requires a known customer and a cart worth recovering.
func (a *Conversion) CanHandle(ac *agent.Context) bool {
	if ac.Customer == nil || ac.Customer.Email == "" {
		return false
	}
	return cartValue(ac) >= minCartValueUSD
}

func (a *Conversion) Decide(ctx context.Context, ac *agent.Context) (*agent.Decision, error) {
	cfg := ac.ConfigFor(agent.TypeConversion)

	prompt := fmt.Sprintf(`A shopper left a checkout unfinished.

%s
Cart value: $%.2f
Event: %s

Choose ONE action:
- "send_recovery_discount": offer a discount code (params: percent 5-15, delay_hours 1-24)
- "schedule_followup": a plain reminder without a discount (params: delay_hours 1-48)
- "NO_ACTION": the shopper is likely to return on their own

Respond with JSON only:
{"action": "...", "params": {...}, "reasoning": "...", "confidence": 0.0-1.0, "estimated_impact": dollars}`,
		customerSummary(ac), cartValue(ac), ac.Event.Type)

	res, err := a.reasoning.Complete(ctx, ac.Tenant, service.CompletionRequest{
		ModelID:      cfg.Model,
		Prompt:       prompt,
		System:       "You are a conversion optimization assistant for an online shop. Be conservative: discounts cost margin.",
		MaxTokens:    500,
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("conversion decide: %w", err)
	}

	return parseDecision(res.Text, res)
}

func (a *Conversion) Execute(ctx context.Context, d *agent.Decision, ac *agent.Context) (map[string]any, error) {
	client, err := commerceFor(a.factory, ac)
	if err != nil {
		return nil, err
	}

	switch d.Action {
	case "send_recovery_discount":
		percent := clampPercent(paramInt(d.Params, "percent", 10), 5, 15)
		now := time.Now()
		discount, err := client.CreateDiscount(ctx, commerce.DiscountRequest{
			Title:              "Come back and save",
			ValuePercent:       percent,
			CustomerExternalID: ac.Customer.ExternalID,
			StartsAt:           now,
			EndsAt:             now.Add(72 * time.Hour),
			UsageLimit:         1,
		})
		if err != nil {
			return nil, fmt.Errorf("create recovery discount: %w", err)
		}
		return map[string]any{"discount_code": discount.Code, "percent": percent}, nil

	case "schedule_followup":
		delay := paramInt(d.Params, "delay_hours", 24)
		if err := client.ScheduleFollowup(ctx, commerce.FollowupRequest{
			Kind:               "cart_reminder",
			CustomerExternalID: ac.Customer.ExternalID,
			DelayDays:          (delay + 23) / 24,
		}); err != nil {
			return nil, fmt.Errorf("schedule reminder: %w", err)
		}
		return map[string]any{"followup": "cart_reminder", "delay_hours": delay}, nil

	default:
		return nil, fmt.Errorf("unknown conversion action %q", d.Action)
	}
}

func cartValue(ac *agent.Context) float64 {
	payload := ac.Event.PayloadMap()
	if v, ok := payload["total_price"].(float64); ok {
		return v
	}
	if v, ok := payload["cart_value"].(float64); ok {
		return v
	}
	return 0
}

func clampPercent(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
