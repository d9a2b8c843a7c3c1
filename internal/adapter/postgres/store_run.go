package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/domain/cost"
)

// CreateRun appends one run audit record. Runs are never updated.
func (s *Store) CreateRun(ctx context.Context, r *agent.Run) error {
	var decisionJSON, resultJSON []byte
	var err error
	if r.Decision != nil {
		if decisionJSON, err = json.Marshal(r.Decision); err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
	}
	if r.Result != nil {
		if resultJSON, err = json.Marshal(r.Result); err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO agent_runs (
			tenant_id, agent_type, trigger_event_id, decision, result,
			duration_ms, tokens_used, cost_usd, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING id, created_at`,
		r.TenantID, r.AgentType, r.TriggerEventID, decisionJSON, resultJSON,
		r.DurationMs, r.TokensUsed, r.CostUSD, r.Status, r.ErrorMessage,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs for a tenant, bounded by limit.
func (s *Store) RecentRuns(ctx context.Context, tenantID string, limit int) ([]agent.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, agent_type, trigger_event_id, decision, result,
		        duration_ms, tokens_used, cost_usd, status, COALESCE(error_message, ''), created_at
		 FROM agent_runs
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []agent.Run
	for rows.Next() {
		var r agent.Run
		var decisionJSON, resultJSON []byte
		if err := rows.Scan(&r.ID, &r.TenantID, &r.AgentType, &r.TriggerEventID,
			&decisionJSON, &resultJSON, &r.DurationMs, &r.TokensUsed, &r.CostUSD,
			&r.Status, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if decisionJSON != nil {
			_ = json.Unmarshal(decisionJSON, &r.Decision)
		}
		if resultJSON != nil {
			_ = json.Unmarshal(resultJSON, &r.Result)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TenantCostSince sums recorded cost across all agents of a tenant in the
// window starting at since. Budget state is always derived from runs.
func (s *Store) TenantCostSince(ctx context.Context, tenantID string, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM agent_runs
		 WHERE tenant_id = $1 AND created_at >= $2`,
		tenantID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("tenant cost since: %w", err)
	}
	return total, nil
}

// AgentCostSince sums recorded cost for one (tenant, agent) pair in the
// window starting at since.
func (s *Store) AgentCostSince(ctx context.Context, tenantID string, agentType agent.Type, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM agent_runs
		 WHERE tenant_id = $1 AND agent_type = $2 AND created_at >= $3`,
		tenantID, agentType, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("agent cost since: %w", err)
	}
	return total, nil
}

// ActionCountSince counts runs whose decision named a real action for one
// (tenant, agent) pair in the window starting at since. Failed executions
// count too; the window throttles attempted actions, not successes. This
// feeds the sliding-window rate limiter.
func (s *Store) ActionCountSince(ctx context.Context, tenantID string, agentType agent.Type, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agent_runs
		 WHERE tenant_id = $1 AND agent_type = $2 AND created_at >= $3
		   AND decision IS NOT NULL
		   AND decision->>'action' != 'NO_ACTION'`,
		tenantID, agentType, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("action count since: %w", err)
	}
	return n, nil
}

// CostSummary aggregates runs for a tenant in the window starting at since.
func (s *Store) CostSummary(ctx context.Context, tenantID string, since time.Time) (*cost.Summary, error) {
	var sum cost.Summary
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0),
		        COALESCE(SUM(tokens_used), 0),
		        COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'success' AND decision->>'action' IS DISTINCT FROM 'NO_ACTION'),
		        COUNT(*) FILTER (WHERE status = 'error')
		 FROM agent_runs
		 WHERE tenant_id = $1 AND created_at >= $2`,
		tenantID, since,
	).Scan(&sum.TotalCostUSD, &sum.TotalTokens, &sum.RunCount, &sum.ActionCount, &sum.ErrorCount)
	if err != nil {
		return nil, fmt.Errorf("cost summary: %w", err)
	}
	return &sum, nil
}

// IncrementDailyMetrics bumps the per-day tenant counters. Best-effort
// observability only; budget math never reads this table.
func (s *Store) IncrementDailyMetrics(ctx context.Context, tenantID string, actions int, costUSD float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenant_metrics_daily (tenant_id, day, actions, cost_usd)
		 VALUES ($1, CURRENT_DATE, $2, $3)
		 ON CONFLICT (tenant_id, day)
		 DO UPDATE SET actions = tenant_metrics_daily.actions + EXCLUDED.actions,
		               cost_usd = tenant_metrics_daily.cost_usd + EXCLUDED.cost_usd`,
		tenantID, actions, costUSD)
	if err != nil {
		return fmt.Errorf("increment daily metrics: %w", err)
	}
	return nil
}
