package service_test

import (
	"testing"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/service"
)

func TestRegistryForEventFiltersAndSorts(t *testing.T) {
	r := service.NewRegistry()
	r.Register(&fakeAgent{typ: agent.TypeAcquisition, priority: 3, events: []event.Type{event.TypeCheckoutStarted}})
	r.Register(&fakeAgent{typ: agent.TypeConversion, priority: 1, events: []event.Type{event.TypeCheckoutStarted, event.TypeCartUpdated}})
	r.Register(&fakeAgent{typ: agent.TypeSupport, priority: 1, events: []event.Type{event.TypeTicketCreated}})
	r.Register(&fakeAgent{typ: agent.TypeRetention, priority: 2, events: []event.Type{event.TypeCheckoutStarted}})

	got := r.ForEvent(event.TypeCheckoutStarted)
	want := []agent.Type{agent.TypeConversion, agent.TypeRetention, agent.TypeAcquisition}
	if len(got) != len(want) {
		t.Fatalf("agents = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type() != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].Type(), want[i])
		}
	}

	if subs := r.ForEvent(event.TypeOrderCancelled); len(subs) != 0 {
		t.Errorf("unexpected subscribers for order.cancelled: %d", len(subs))
	}
}

func TestRegistryStableOrderOnTies(t *testing.T) {
	r := service.NewRegistry()
	first := &fakeAgent{typ: agent.TypeSupport, priority: 1, events: []event.Type{event.TypeTicketCreated}}
	second := &fakeAgent{typ: agent.TypeConversion, priority: 1, events: []event.Type{event.TypeTicketCreated}}
	r.Register(first)
	r.Register(second)

	got := r.ForEvent(event.TypeTicketCreated)
	if len(got) != 2 || got[0].Type() != agent.TypeSupport || got[1].Type() != agent.TypeConversion {
		t.Errorf("tie order changed: %v, %v", got[0].Type(), got[1].Type())
	}
}
