package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/billing"
	"github.com/axiome/agentcore/internal/domain/cost"
	"github.com/axiome/agentcore/internal/domain/customer"
	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/domain/tenant"
	"github.com/axiome/agentcore/internal/port/database"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}

// mockStore is an in-memory database.Store. Zero value is usable; error
// fields inject failures per method family.
type mockStore struct {
	mu sync.Mutex

	tenants       map[string]*tenant.Tenant
	customersByID map[string]*customer.Customer
	customersByEm map[string]*customer.Customer
	events        map[string]*event.Event
	configs       map[string][]agent.Config
	runs          []agent.Run
	processed     map[string]bool
	subscriptions map[string]*billing.Subscription
	deadLetters   []database.DeadLetter
	eventCount    int

	tenantErr    error
	runErr       error
	costErr      error
	processedErr error
	subErr       error
}

var _ database.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		tenants:       map[string]*tenant.Tenant{},
		customersByID: map[string]*customer.Customer{},
		customersByEm: map[string]*customer.Customer{},
		events:        map[string]*event.Event{},
		configs:       map[string][]agent.Config{},
		processed:     map[string]bool{},
		subscriptions: map[string]*billing.Subscription{},
	}
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tenantErr != nil {
		return nil, m.tenantErr
	}
	if t, ok := m.tenants[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) GetCustomerByExternalID(_ context.Context, _, externalID string) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customersByID[externalID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetCustomerByEmail(_ context.Context, _, email string) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customersByEm[email]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) RecentOrdersForCustomer(context.Context, string, string, int) ([]customer.Order, error) {
	return nil, nil
}

func (m *mockStore) CreateEvent(_ context.Context, ev *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
	return nil
}

func (m *mockStore) GetEvent(_ context.Context, id string) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		return ev, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) RecentEventsForCustomer(context.Context, string, string, int) ([]event.Event, error) {
	return nil, nil
}

func (m *mockStore) MarkEventProcessed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		now := time.Now()
		ev.ProcessedAt = &now
	}
	return nil
}

func (m *mockStore) CountEventsSince(context.Context, string, time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCount, nil
}

func (m *mockStore) GetAgentConfigs(_ context.Context, tenantID string) ([]agent.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configs[tenantID], nil
}

func (m *mockStore) CreateRun(_ context.Context, r *agent.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runErr != nil {
		return m.runErr
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("run-%d", len(m.runs)+1)
	}
	r.CreatedAt = time.Now()
	m.runs = append(m.runs, *r)
	return nil
}

func (m *mockStore) RecentRuns(_ context.Context, tenantID string, limit int) ([]agent.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []agent.Run
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.runs[i].TenantID == tenantID {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}

func (m *mockStore) TenantCostSince(_ context.Context, tenantID string, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.costErr != nil {
		return 0, m.costErr
	}
	var total float64
	for _, r := range m.runs {
		if r.TenantID == tenantID && !r.CreatedAt.Before(since) {
			total += r.CostUSD
		}
	}
	return total, nil
}

func (m *mockStore) AgentCostSince(_ context.Context, tenantID string, agentType agent.Type, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.costErr != nil {
		return 0, m.costErr
	}
	var total float64
	for _, r := range m.runs {
		if r.TenantID == tenantID && r.AgentType == agentType && !r.CreatedAt.Before(since) {
			total += r.CostUSD
		}
	}
	return total, nil
}

func (m *mockStore) ActionCountSince(_ context.Context, tenantID string, agentType agent.Type, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.costErr != nil {
		return 0, m.costErr
	}
	count := 0
	for _, r := range m.runs {
		if r.TenantID != tenantID || r.AgentType != agentType || r.CreatedAt.Before(since) {
			continue
		}
		if r.Decision != nil && !r.Decision.IsNoAction() {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) CostSummary(context.Context, string, time.Time) (*cost.Summary, error) {
	return &cost.Summary{}, nil
}

func (m *mockStore) IncrementDailyMetrics(context.Context, string, int, float64) error {
	return nil
}

func (m *mockStore) InsertProcessed(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processedErr != nil {
		return m.processedErr
	}
	m.processed[key] = true
	return nil
}

func (m *mockStore) InsertProcessedBatch(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processedErr != nil {
		return m.processedErr
	}
	for _, k := range keys {
		m.processed[k] = true
	}
	return nil
}

func (m *mockStore) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processedErr != nil {
		return false, m.processedErr
	}
	return m.processed[key], nil
}

func (m *mockStore) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (m *mockStore) GetActiveSubscription(_ context.Context, tenantID string) (*billing.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subErr != nil {
		return nil, m.subErr
	}
	if s, ok := m.subscriptions[tenantID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) InsertDeadLetter(_ context.Context, dl *database.DeadLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLetters = append(m.deadLetters, *dl)
	return nil
}

func (m *mockStore) ListDeadLetters(context.Context, string, int) ([]database.DeadLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deadLetters, nil
}

func (m *mockStore) ResolveDeadLetter(context.Context, string) error { return nil }

// recordedRuns returns a copy of the run log.
func (m *mockStore) recordedRuns() []agent.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]agent.Run, len(m.runs))
	copy(out, m.runs)
	return out
}

// seedRun inserts a historical run directly, for budget and rate tests.
func (m *mockStore) seedRun(r agent.Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
}

// mockCache is a map-backed cache port.
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
