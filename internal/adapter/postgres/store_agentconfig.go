package postgres

import (
	"context"
	"fmt"

	"github.com/axiome/agentcore/internal/domain/agent"
)

// GetAgentConfigs returns all stored per-agent overrides for a tenant.
// Agents without a stored row fall back to the static defaults; the
// context builder handles the overlay.
func (s *Store) GetAgentConfigs(ctx context.Context, tenantID string) ([]agent.Config, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT agent_type, enabled, priority, max_actions_per_hour, model, max_cost_per_day_usd
		 FROM agent_configs
		 WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get agent configs: %w", err)
	}
	defer rows.Close()

	var configs []agent.Config
	for rows.Next() {
		var c agent.Config
		if err := rows.Scan(&c.AgentType, &c.Enabled, &c.Priority,
			&c.MaxActionsPerHour, &c.Model, &c.MaxCostPerDayUSD); err != nil {
			return nil, fmt.Errorf("scan agent config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
