package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/domain/tenant"
	"github.com/axiome/agentcore/internal/port/billingport"
	"github.com/axiome/agentcore/internal/service"
)

// allowGate admits everything.
type allowGate struct{ called bool }

func (g *allowGate) CanProcessEvent(context.Context, string) (billingport.Check, error) {
	g.called = true
	return billingport.Check{Allowed: true}, nil
}

// denyGate denies everything with a fixed reason.
type denyGate struct{}

func (denyGate) CanProcessEvent(context.Context, string) (billingport.Check, error) {
	return billingport.Check{Allowed: false, Reason: "no_subscription"}, nil
}

// fakeAgent is a scriptable agent.
type fakeAgent struct {
	typ       agent.Type
	priority  int
	events    []event.Type
	canHandle bool
	decision  *agent.Decision
	decideErr error
	execErr   error
	order     *[]agent.Type // appended to on Decide, to observe ordering
}

func (f *fakeAgent) Type() agent.Type                 { return f.typ }
func (f *fakeAgent) Priority() int                    { return f.priority }
func (f *fakeAgent) SubscribedEvents() []event.Type   { return f.events }
func (f *fakeAgent) IsEnabled(ac *agent.Context) bool { return ac.ConfigFor(f.typ).Enabled }
func (f *fakeAgent) CanHandle(*agent.Context) bool    { return f.canHandle }

func (f *fakeAgent) Decide(context.Context, *agent.Context) (*agent.Decision, error) {
	if f.order != nil {
		*f.order = append(*f.order, f.typ)
	}
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	return f.decision, nil
}

func (f *fakeAgent) Execute(context.Context, *agent.Decision, *agent.Context) (map[string]any, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	return map[string]any{"done": true}, nil
}

func testEvent(id string) *event.Event {
	return &event.Event{
		ID:       id,
		TenantID: "t1",
		Type:     event.TypeCheckoutStarted,
		Source:   event.SourceCommerce,
	}
}

func newTestOrchestrator(t *testing.T, store *mockStore, gate billingport.Gate, agents ...agent.Agent) (*service.Orchestrator, *service.Idempotency) {
	t.Helper()

	store.tenants["t1"] = &tenant.Tenant{ID: "t1", Name: "Shop One", Enabled: true}

	registry := service.NewRegistry()
	for _, a := range agents {
		registry.Register(a)
	}

	log := discardLogger()
	idem := service.NewIdempotency(newMockCache(), store, log, 0)
	builder := service.NewContextBuilder(store, nil, log, 20, 10)
	budget := service.NewBudgetGuard(store, log, 100, 25, 500)
	rate := service.NewRateLimiter(store, log)

	return service.NewOrchestrator(registry, idem, gate, builder, budget, rate, store, nil, log), idem
}

func TestProcessEventDuplicateSkips(t *testing.T) {
	store := newMockStore()
	gate := &allowGate{}
	a := &fakeAgent{typ: agent.TypeConversion, priority: 1, events: []event.Type{event.TypeCheckoutStarted}, canHandle: true, decision: &agent.Decision{Action: "x"}}
	orch, idem := newTestOrchestrator(t, store, gate, a)

	ctx := context.Background()
	if err := idem.MarkProcessed(ctx, "ev1"); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	if err := orch.ProcessEvent(ctx, testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if gate.called {
		t.Error("billing gate consulted for a duplicate event")
	}
	if got := len(store.recordedRuns()); got != 0 {
		t.Errorf("runs recorded for duplicate = %d, want 0", got)
	}
}

func TestProcessEventBillingDenialIsTerminal(t *testing.T) {
	store := newMockStore()
	a := &fakeAgent{typ: agent.TypeConversion, priority: 1, events: []event.Type{event.TypeCheckoutStarted}, canHandle: true}
	orch, idem := newTestOrchestrator(t, store, denyGate{}, a)

	ctx := context.Background()
	if err := orch.ProcessEvent(ctx, testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := len(store.recordedRuns()); got != 0 {
		t.Errorf("runs recorded despite denial = %d, want 0", got)
	}
	// The denial must stick: a redelivery is a duplicate now.
	if !idem.IsProcessed(ctx, "ev1") {
		t.Error("billing-denied event was not marked processed")
	}
}

func TestProcessEventContextFailurePropagates(t *testing.T) {
	store := newMockStore()
	orch, idem := newTestOrchestrator(t, store, &allowGate{})

	ev := testEvent("ev1")
	ev.TenantID = "missing"

	ctx := context.Background()
	if err := orch.ProcessEvent(ctx, ev); err == nil {
		t.Fatal("expected error for unknown tenant")
	}
	// Unmarked, so redelivery retries once infrastructure heals.
	if idem.IsProcessed(ctx, "ev1") {
		t.Error("failed event was marked processed")
	}
}

func TestProcessEventNoActionRecordsSuccess(t *testing.T) {
	store := newMockStore()
	a := &fakeAgent{
		typ:       agent.TypeConversion,
		priority:  1,
		events:    []event.Type{event.TypeCheckoutStarted},
		canHandle: true,
		decision:  &agent.Decision{Action: agent.NoAction, Reasoning: "nothing to do"},
		execErr:   errors.New("execute must not be reached"),
	}
	orch, _ := newTestOrchestrator(t, store, &allowGate{}, a)

	if err := orch.ProcessEvent(context.Background(), testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}

	runs := store.recordedRuns()
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].Status != agent.RunSuccess {
		t.Errorf("status = %s, want success", runs[0].Status)
	}
	if runs[0].Decision == nil || runs[0].Decision.Action != agent.NoAction {
		t.Errorf("run decision not preserved: %+v", runs[0].Decision)
	}
}

func TestProcessEventAgentErrorIsolation(t *testing.T) {
	store := newMockStore()
	failing := &fakeAgent{
		typ:       agent.TypeSupport,
		priority:  1,
		events:    []event.Type{event.TypeCheckoutStarted},
		canHandle: true,
		decideErr: errors.New("model unavailable"),
	}
	healthy := &fakeAgent{
		typ:       agent.TypeRetention,
		priority:  2,
		events:    []event.Type{event.TypeCheckoutStarted},
		canHandle: true,
		decision:  &agent.Decision{Action: "tag_vip"},
	}
	orch, idem := newTestOrchestrator(t, store, &allowGate{}, failing, healthy)

	ctx := context.Background()
	if err := orch.ProcessEvent(ctx, testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}

	runs := store.recordedRuns()
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Status != agent.RunError || runs[0].ErrorMessage == "" {
		t.Errorf("failing agent run = %+v, want error status with message", runs[0])
	}
	if runs[1].Status != agent.RunSuccess {
		t.Errorf("healthy agent run = %s, want success", runs[1].Status)
	}
	if !idem.IsProcessed(ctx, "ev1") {
		t.Error("event with partial failures was not marked processed")
	}
}

func TestProcessEventAgentOrdering(t *testing.T) {
	store := newMockStore()
	var order []agent.Type
	mk := func(typ agent.Type, prio int) *fakeAgent {
		return &fakeAgent{
			typ:       typ,
			priority:  prio,
			events:    []event.Type{event.TypeCheckoutStarted},
			canHandle: true,
			decision:  &agent.Decision{Action: agent.NoAction},
			order:     &order,
		}
	}
	// Enable the normally-disabled types via stored configs.
	store.configs["t1"] = []agent.Config{
		{AgentType: agent.TypeAcquisition, Enabled: true, Priority: 3, Model: "gpt-4o-mini"},
		{AgentType: agent.TypeOperations, Enabled: true, Priority: 4, Model: "gpt-4o-mini"},
	}

	orch, _ := newTestOrchestrator(t, store, &allowGate{},
		mk(agent.TypeAcquisition, 3),
		mk(agent.TypeConversion, 1),
		mk(agent.TypeRetention, 2),
		mk(agent.TypeOperations, 4),
	)

	if err := orch.ProcessEvent(context.Background(), testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}

	want := []agent.Type{agent.TypeConversion, agent.TypeRetention, agent.TypeAcquisition, agent.TypeOperations}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

func TestProcessEventBudgetDenialRecordsSkip(t *testing.T) {
	store := newMockStore()
	a := &fakeAgent{
		typ:       agent.TypeConversion,
		priority:  1,
		events:    []event.Type{event.TypeCheckoutStarted},
		canHandle: true,
		decision:  &agent.Decision{Action: "x"},
	}
	// Exhaust the conversion agent's $5 daily cap.
	store.seedRun(agent.Run{TenantID: "t1", AgentType: agent.TypeConversion, Status: agent.RunSuccess, CostUSD: 6, CreatedAt: timeNowUTC()})

	orch, _ := newTestOrchestrator(t, store, &allowGate{}, a)
	if err := orch.ProcessEvent(context.Background(), testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}

	runs := store.recordedRuns()
	if len(runs) != 2 { // seeded + skip record
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	skip := runs[1]
	if skip.Status != agent.RunSkipped {
		t.Errorf("status = %s, want skipped", skip.Status)
	}
	if skip.ErrorMessage != "agent_daily_budget_exceeded" {
		t.Errorf("reason = %q", skip.ErrorMessage)
	}
}

func TestProcessEventDisabledAgentNotInvoked(t *testing.T) {
	store := newMockStore()
	a := &fakeAgent{
		typ:       agent.TypeAcquisition, // disabled by default
		priority:  3,
		events:    []event.Type{event.TypeCheckoutStarted},
		canHandle: true,
		decision:  &agent.Decision{Action: "x"},
	}
	orch, _ := newTestOrchestrator(t, store, &allowGate{}, a)

	if err := orch.ProcessEvent(context.Background(), testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := len(store.recordedRuns()); got != 0 {
		t.Errorf("runs = %d, want 0 for disabled agent", got)
	}
}

func TestProcessEventDisabledTenantDrops(t *testing.T) {
	store := newMockStore()
	a := &fakeAgent{typ: agent.TypeConversion, priority: 1, events: []event.Type{event.TypeCheckoutStarted}, canHandle: true, decision: &agent.Decision{Action: "x"}}
	orch, idem := newTestOrchestrator(t, store, &allowGate{}, a)
	store.tenants["t1"].Enabled = false

	ctx := context.Background()
	if err := orch.ProcessEvent(ctx, testEvent("ev1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := len(store.recordedRuns()); got != 0 {
		t.Errorf("runs = %d, want 0 for disabled tenant", got)
	}
	if !idem.IsProcessed(ctx, "ev1") {
		t.Error("dropped event was not marked processed")
	}
}
