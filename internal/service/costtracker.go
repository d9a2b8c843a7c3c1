package service

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/axiome/agentcore/internal/port/database"
)

// highCostCallUSD is the per-call cost above which a warning is logged.
const highCostCallUSD = 0.50

// CostTracker records reasoning spend into Prometheus and the per-day
// tenant metrics table. Recording is best effort and never blocks the
// completion path.
type CostTracker struct {
	store  database.Store
	logger *slog.Logger

	callsTotal  *prometheus.CounterVec
	tokensTotal *prometheus.CounterVec
	costTotal   *prometheus.CounterVec
	callCostUSD *prometheus.HistogramVec
}

// NewCostTracker creates the tracker and registers its metrics with the
// default registry.
func NewCostTracker(store database.Store, logger *slog.Logger) *CostTracker {
	return &CostTracker{
		store:  store,
		logger: logger,
		callsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_reasoning_calls_total",
			Help: "Completed reasoning calls by model and outcome.",
		}, []string{"model", "outcome"}),
		tokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_reasoning_tokens_total",
			Help: "Tokens consumed by model and direction.",
		}, []string{"model", "direction"}),
		costTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_reasoning_cost_usd_total",
			Help: "Accumulated reasoning spend in USD by tenant and model.",
		}, []string{"tenant", "model"}),
		callCostUSD: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_reasoning_call_cost_usd",
			Help:    "Per-call reasoning cost in USD.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"model"}),
	}
}

// RecordCall tracks one successful completion.
func (t *CostTracker) RecordCall(ctx context.Context, tenantID, modelID string, inputTokens, outputTokens int, costUSD float64) {
	t.callsTotal.WithLabelValues(modelID, "success").Inc()
	t.tokensTotal.WithLabelValues(modelID, "input").Add(float64(inputTokens))
	t.tokensTotal.WithLabelValues(modelID, "output").Add(float64(outputTokens))
	t.costTotal.WithLabelValues(tenantID, modelID).Add(costUSD)
	t.callCostUSD.WithLabelValues(modelID).Observe(costUSD)

	if costUSD >= highCostCallUSD {
		t.logger.Warn("high cost reasoning call",
			slog.String("tenant_id", tenantID),
			slog.String("model", modelID),
			slog.Float64("cost_usd", costUSD))
	}

	if err := t.store.IncrementDailyMetrics(ctx, tenantID, 0, costUSD); err != nil {
		t.logger.Warn("daily metrics update failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
	}
}

// RecordFailure tracks one exhausted completion.
func (t *CostTracker) RecordFailure(modelID string) {
	t.callsTotal.WithLabelValues(modelID, "error").Inc()
}

// RecordAction tracks one executed agent action in the daily metrics.
func (t *CostTracker) RecordAction(ctx context.Context, tenantID string) {
	if err := t.store.IncrementDailyMetrics(ctx, tenantID, 1, 0); err != nil {
		t.logger.Warn("daily metrics update failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
	}
}
