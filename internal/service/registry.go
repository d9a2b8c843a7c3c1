// Package service implements the orchestration core: admission,
// idempotency, budget and rate gates, reasoning and the per-event
// agent dispatch loop.
package service

import (
	"sort"
	"sync"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/event"
)

// Registry holds the installed agents and answers subscription queries.
// Registration happens at startup; reads are concurrency-safe.
type Registry struct {
	mu     sync.RWMutex
	agents []agent.Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register installs an agent. Later registrations with the same type do
// not replace earlier ones; install each agent once.
func (r *Registry) Register(a agent.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = append(r.agents, a)
}

// All returns every installed agent.
func (r *Registry) All() []agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// ForEvent returns the agents subscribed to the event type, ordered by
// ascending priority. Ties keep registration order.
func (r *Registry) ForEvent(t event.Type) []agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []agent.Agent
	for _, a := range r.agents {
		for _, sub := range a.SubscribedEvents() {
			if sub == t {
				out = append(out, a)
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
