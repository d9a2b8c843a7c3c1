package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/port/database"
)

// RateLimiter caps how many actions an agent may take per sliding hour.
// Runs whose decision named a real action count against the window even
// when execution failed; a NO_ACTION evaluation is free.
type RateLimiter struct {
	store  database.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimiter creates the limiter.
func NewRateLimiter(store database.Store, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// Allow reports whether the agent may act for the tenant right now.
// A non-positive cap means unlimited.
func (r *RateLimiter) Allow(ctx context.Context, tenantID string, agentType agent.Type, maxPerHour int) (bool, error) {
	if maxPerHour <= 0 {
		return true, nil
	}

	since := r.now().Add(-time.Hour)
	count, err := r.store.ActionCountSince(ctx, tenantID, agentType, since)
	if err != nil {
		return false, fmt.Errorf("action count: %w", err)
	}

	if count >= maxPerHour {
		r.logger.Debug("rate limit reached",
			slog.String("tenant_id", tenantID),
			slog.String("agent_type", string(agentType)),
			slog.Int("actions_last_hour", count),
			slog.Int("max_per_hour", maxPerHour))
		return false, nil
	}
	return true, nil
}
