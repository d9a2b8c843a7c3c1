package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/customer"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/database"
	"github.com/axiome/agentcore/internal/secrets"
)

// ContextBuilder assembles the per-event decision context from stored
// tenant, customer and history data.
type ContextBuilder struct {
	store        database.Store
	cipher       *secrets.Cipher
	logger       *slog.Logger
	now          func() time.Time
	recentEvents int
	recentOrders int
}

// NewContextBuilder creates a context builder. cipher may be nil when
// credential decryption is not configured; agents then see an empty
// access token.
func NewContextBuilder(store database.Store, cipher *secrets.Cipher, logger *slog.Logger, recentEvents, recentOrders int) *ContextBuilder {
	return &ContextBuilder{
		store:        store,
		cipher:       cipher,
		logger:       logger,
		now:          time.Now,
		recentEvents: recentEvents,
		recentOrders: recentOrders,
	}
}

// Build resolves everything an agent may read for one event. A missing
// tenant is fatal. A missing customer or missing history is not; the
// corresponding fields stay empty.
func (b *ContextBuilder) Build(ctx context.Context, ev *event.Event) (*agent.Context, error) {
	t, err := b.store.GetTenant(ctx, ev.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant %s: %w", ev.TenantID, err)
	}

	ac := &agent.Context{
		Tenant:  t,
		Event:   ev,
		Configs: b.loadConfigs(ctx, ev.TenantID),
	}

	if b.cipher != nil && t.AccessToken != "" {
		token, err := b.cipher.Decrypt(t.AccessToken)
		if err != nil {
			// Fail closed on the credential, open on the context.
			// Agents still decide; side effects needing the token fail.
			b.logger.Warn("access token decryption failed",
				slog.String("tenant_id", t.ID),
				slog.String("error", err.Error()))
		} else {
			ac.AccessToken = token
		}
	}

	cust := b.resolveCustomer(ctx, ev)
	if cust != nil {
		ac.Customer = &agent.CustomerContext{
			ID:                 cust.ID,
			ExternalID:         cust.ExternalID,
			Email:              cust.Email,
			TotalOrders:        cust.TotalOrders,
			TotalSpent:         cust.TotalSpent,
			DaysSinceLastOrder: cust.DaysSinceLastOrder(b.now()),
			IsRepeatBuyer:      cust.IsRepeatBuyer(),
			Tags:               cust.Tags,
		}

		if cust.Email != "" {
			events, err := b.store.RecentEventsForCustomer(ctx, ev.TenantID, cust.Email, b.recentEvents)
			if err != nil {
				b.logger.Warn("recent events lookup failed", slog.String("error", err.Error()))
			} else {
				ac.RecentEvents = events
			}
		}

		if cust.ExternalID != "" {
			orders, err := b.store.RecentOrdersForCustomer(ctx, ev.TenantID, cust.ExternalID, b.recentOrders)
			if err != nil {
				b.logger.Warn("recent orders lookup failed", slog.String("error", err.Error()))
			} else {
				ac.RecentOrders = orders
			}
		}
	}

	return ac, nil
}

// resolveCustomer tries the payload's customer id first, then its email.
// Returns nil when the event carries no resolvable customer.
func (b *ContextBuilder) resolveCustomer(ctx context.Context, ev *event.Event) *customer.Customer {
	payload := ev.PayloadMap()

	if id := payloadString(payload, "customer_id"); id != "" {
		c, err := b.store.GetCustomerByExternalID(ctx, ev.TenantID, id)
		if err == nil {
			return c
		}
		if !errors.Is(err, domain.ErrNotFound) {
			b.logger.Warn("customer lookup by id failed", slog.String("error", err.Error()))
		}
	}

	email := payloadString(payload, "email")
	if email == "" {
		if nested, ok := payload["customer"].(map[string]any); ok {
			email = payloadString(nested, "email")
		}
	}
	if email != "" {
		c, err := b.store.GetCustomerByEmail(ctx, ev.TenantID, email)
		if err == nil {
			return c
		}
		if !errors.Is(err, domain.ErrNotFound) {
			b.logger.Warn("customer lookup by email failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// loadConfigs overlays stored per-tenant agent configuration on the
// static defaults. Store errors degrade to defaults.
func (b *ContextBuilder) loadConfigs(ctx context.Context, tenantID string) map[agent.Type]agent.Config {
	out := make(map[agent.Type]agent.Config, len(agent.Defaults))
	for t, c := range agent.Defaults {
		out[t] = c
	}

	stored, err := b.store.GetAgentConfigs(ctx, tenantID)
	if err != nil {
		b.logger.Warn("agent config lookup failed, using defaults",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return out
	}
	for _, c := range stored {
		out[c.AgentType] = c
	}
	return out
}

func payloadString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
