package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/adapter/otel"
	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/billingport"
	"github.com/axiome/agentcore/internal/port/database"
)

// Orchestrator runs the per-event pipeline: dedup, admission, context
// assembly and the sequential agent dispatch loop. One agent's failure
// never stops the others.
type Orchestrator struct {
	registry    *Registry
	idempotency *Idempotency
	gate        billingport.Gate
	builder     *ContextBuilder
	budget      *BudgetGuard
	rate        *RateLimiter
	store       database.Store
	tracker     *CostTracker
	logger      *slog.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(registry *Registry, idem *Idempotency, gate billingport.Gate, builder *ContextBuilder, budget *BudgetGuard, rate *RateLimiter, store database.Store, tracker *CostTracker, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		idempotency: idem,
		gate:        gate,
		builder:     builder,
		budget:      budget,
		rate:        rate,
		store:       store,
		tracker:     tracker,
		logger:      logger,
	}
}

// ProcessEvent handles one event end to end. A returned error means the
// event was NOT marked processed and may be redelivered; terminal
// outcomes (duplicate, billing denial, agents done) return nil.
func (o *Orchestrator) ProcessEvent(ctx context.Context, ev *event.Event) error {
	ctx, span := otel.StartEventSpan(ctx, ev.TenantID, ev.ID, string(ev.Type))
	var retErr error
	defer func() { otel.EndSpan(span, retErr) }()

	log := o.logger.With(
		slog.String("event_id", ev.ID),
		slog.String("tenant_id", ev.TenantID),
		slog.String("event_type", string(ev.Type)))

	if o.idempotency.IsProcessed(ctx, ev.ID) {
		log.Debug("duplicate event, skipping")
		return nil
	}

	check, err := o.gate.CanProcessEvent(ctx, ev.TenantID)
	if err != nil {
		retErr = fmt.Errorf("billing gate: %w", err)
		return retErr
	}
	if !check.Allowed {
		// Terminal: replaying a billing-denied event would re-deny it.
		log.Info("event not admitted", slog.String("reason", check.Reason))
		return o.finish(ctx, ev, log)
	}

	ac, err := o.builder.Build(ctx, ev)
	if err != nil {
		// Context failures are infrastructure trouble; leave the event
		// unmarked so redelivery can retry with healthy dependencies.
		retErr = fmt.Errorf("build context: %w", err)
		return retErr
	}

	if !ac.Tenant.Enabled {
		log.Info("tenant disabled, event dropped")
		return o.finish(ctx, ev, log)
	}

	ran := 0
	for _, a := range o.registry.ForEvent(ev.Type) {
		if !a.IsEnabled(ac) {
			continue
		}
		o.runAgent(ctx, a, ac, log)
		ran++
	}
	log.Info("event processed", slog.Int("agents", ran))

	return o.finish(ctx, ev, log)
}

// runAgent takes one agent through gates, decide and execute, recording
// exactly one run for every attempt that got past the gates.
func (o *Orchestrator) runAgent(ctx context.Context, a agent.Agent, ac *agent.Context, log *slog.Logger) {
	ctx, span := otel.StartAgentSpan(ctx, string(a.Type()))
	var spanErr error
	defer func() { otel.EndSpan(span, spanErr) }()

	cfg := ac.ConfigFor(a.Type())
	log = log.With(slog.String("agent_type", string(a.Type())))

	check, err := o.budget.Check(ctx, ac.Tenant, a.Type(), cfg)
	if err != nil {
		spanErr = err
		log.Warn("budget check failed, agent skipped", slog.String("error", err.Error()))
		return
	}
	if !check.Allowed {
		o.record(ctx, ac, a.Type(), &agent.Run{
			Status:       agent.RunSkipped,
			ErrorMessage: check.Reason,
		}, log)
		return
	}

	allowed, err := o.rate.Allow(ctx, ac.Tenant.ID, a.Type(), cfg.MaxActionsPerHour)
	if err != nil {
		spanErr = err
		log.Warn("rate check failed, agent skipped", slog.String("error", err.Error()))
		return
	}
	if !allowed {
		return
	}

	if !a.CanHandle(ac) {
		return
	}

	start := time.Now()

	decision, err := a.Decide(ctx, ac)
	if err != nil {
		spanErr = err
		log.Error("agent decide failed", slog.String("error", err.Error()))
		o.record(ctx, ac, a.Type(), &agent.Run{
			Status:       agent.RunError,
			ErrorMessage: err.Error(),
			DurationMs:   time.Since(start).Milliseconds(),
		}, log)
		return
	}

	run := &agent.Run{
		Decision:   decision,
		TokensUsed: decision.TokensUsed,
		CostUSD:    decision.CostUSD,
	}

	if decision.IsNoAction() {
		run.Status = agent.RunSuccess
		run.DurationMs = time.Since(start).Milliseconds()
		o.record(ctx, ac, a.Type(), run, log)
		return
	}

	result, err := a.Execute(ctx, decision, ac)
	run.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		spanErr = err
		log.Error("agent execute failed",
			slog.String("action", decision.Action),
			slog.String("error", err.Error()))
		run.Status = agent.RunError
		run.ErrorMessage = err.Error()
		o.record(ctx, ac, a.Type(), run, log)
		return
	}

	run.Status = agent.RunSuccess
	run.Result = result
	o.record(ctx, ac, a.Type(), run, log)

	log.Info("agent action executed",
		slog.String("action", decision.Action),
		slog.Float64("cost_usd", decision.CostUSD))

	if o.tracker != nil {
		o.tracker.RecordAction(ctx, ac.Tenant.ID)
	}
}

// record persists one run. The audit trail is load-bearing for budget
// and rate math, so a failed insert is an error log, not a silent drop.
func (o *Orchestrator) record(ctx context.Context, ac *agent.Context, t agent.Type, run *agent.Run, log *slog.Logger) {
	run.TenantID = ac.Tenant.ID
	run.AgentType = t
	run.TriggerEventID = ac.Event.ID

	if err := o.store.CreateRun(ctx, run); err != nil {
		log.Error("run insert failed", slog.String("error", err.Error()))
	}
}

// finish marks the event processed in the dedup ledger and on the event
// row. Both writes are final-state bookkeeping; failures degrade dedup
// but do not fail the event.
func (o *Orchestrator) finish(ctx context.Context, ev *event.Event, log *slog.Logger) error {
	if err := o.idempotency.MarkProcessed(ctx, ev.ID); err != nil {
		log.Warn("dedup mark failed", slog.String("error", err.Error()))
	}
	if err := o.store.MarkEventProcessed(ctx, ev.ID); err != nil {
		log.Warn("event mark failed", slog.String("error", err.Error()))
	}
	return nil
}
