package agents

import (
	"context"
	"fmt"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/service"
)

// Support triages new support tickets: it flags urgent ones and marks
// high-value customers so a human sees them first.
type Support struct {
	reasoning *service.ReasoningService
	factory   commerce.ClientFactory
}

var _ agent.Agent = (*Support)(nil)

// NewSupport creates the support agent.
func NewSupport(r *service.ReasoningService, factory commerce.ClientFactory) *Support {
	return &Support{reasoning: r, factory: factory}
}

func (a *Support) Type() agent.Type { return agent.TypeSupport }

func (a *Support) Priority() int { return agent.Defaults[agent.TypeSupport].Priority }

func (a *Support) SubscribedEvents() []event.Type {
	return []event.Type{event.TypeTicketCreated}
}

func (a *Support) IsEnabled(ac *agent.Context) bool {
	return ac.ConfigFor(agent.TypeSupport).Enabled
}

// CanHandle requires a ticket body to triage.
func (a *Support) CanHandle(ac *agent.Context) bool {
	payload := ac.Event.PayloadMap()
	subject, _ := payload["subject"].(string)
	body, _ := payload["body"].(string)
	return subject != "" || body != ""
}

func (a *Support) Decide(ctx context.Context, ac *agent.Context) (*agent.Decision, error) {
	cfg := ac.ConfigFor(agent.TypeSupport)
	payload := ac.Event.PayloadMap()
	subject, _ := payload["subject"].(string)
	body, _ := payload["body"].(string)

	prompt := fmt.Sprintf(`Triage a new support ticket.

%s
Subject: %s
Body: %s

Choose ONE action:
- "flag_urgent": the ticket needs a human now (params: category one of "refund", "shipping", "product", "account", "other")
- "tag_priority_customer": not urgent, but the customer's value warrants fast handling
- "NO_ACTION": routine ticket, normal queue is fine

Respond with JSON only:
{"action": "...", "params": {...}, "reasoning": "...", "confidence": 0.0-1.0, "estimated_impact": dollars}`,
		customerSummary(ac), subject, body)

	res, err := a.reasoning.Complete(ctx, ac.Tenant, service.CompletionRequest{
		ModelID:      cfg.Model,
		Prompt:       prompt,
		System:       "You triage support tickets for an online shop. Flag urgency only for refund demands, lost shipments or angry repeat buyers.",
		MaxTokens:    400,
		Temperature:  0.2,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("support decide: %w", err)
	}

	return parseDecision(res.Text, res)
}

func (a *Support) Execute(ctx context.Context, d *agent.Decision, ac *agent.Context) (map[string]any, error) {
	if ac.Customer == nil || ac.Customer.ExternalID == "" {
		// Triage verdicts without a customer record still surface
		// through the run's decision; there is no profile to tag.
		return map[string]any{"triaged": d.Action}, nil
	}

	client, err := commerceFor(a.factory, ac)
	if err != nil {
		return nil, err
	}

	switch d.Action {
	case "flag_urgent":
		category := paramString(d.Params, "category", "other")
		if err := client.TagCustomer(ctx, ac.Customer.ExternalID, []string{"urgent-ticket", "ticket-" + category}); err != nil {
			return nil, fmt.Errorf("tag urgent: %w", err)
		}
		return map[string]any{"flagged": "urgent", "category": category}, nil

	case "tag_priority_customer":
		if err := client.TagCustomer(ctx, ac.Customer.ExternalID, []string{"priority-support"}); err != nil {
			return nil, fmt.Errorf("tag priority: %w", err)
		}
		return map[string]any{"tagged": "priority-support"}, nil

	default:
		return nil, fmt.Errorf("unknown support action %q", d.Action)
	}
}
