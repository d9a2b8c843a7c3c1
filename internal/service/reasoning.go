package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/model"
	"github.com/axiome/agentcore/internal/domain/tenant"
	"github.com/axiome/agentcore/internal/port/reasoning"
)

// CompletionRequest is one reasoning request from an agent, expressed in
// catalog model ids rather than provider API names.
type CompletionRequest struct {
	ModelID      string
	Prompt       string
	System       string
	MaxTokens    int
	Temperature  float64
	JSONResponse bool
}

// CompletionResult is the completion plus the actual model and spend.
type CompletionResult struct {
	Text         string
	ModelID      string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// ReasoningService routes completions to providers, downgrades models
// under budget pressure and retries throttled calls with backoff.
type ReasoningService struct {
	providers      map[model.Provider]reasoning.Provider
	budget         *BudgetGuard
	tracker        *CostTracker
	logger         *slog.Logger
	attemptTimeout time.Duration
	maxRetries     int
	backoffBase    time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewReasoningService creates the service. providers maps each provider
// family to its adapter; a model whose provider is absent fails fast.
func NewReasoningService(providers map[model.Provider]reasoning.Provider, budget *BudgetGuard, tracker *CostTracker, logger *slog.Logger, attemptTimeout time.Duration, maxRetries int, backoffBase time.Duration) *ReasoningService {
	return &ReasoningService{
		providers:      providers,
		budget:         budget,
		tracker:        tracker,
		logger:         logger,
		attemptTimeout: attemptTimeout,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		sleep:          sleepCtx,
	}
}

// Complete runs one completion for a tenant. The requested model may be
// downgraded before the first attempt when the tenant's remaining daily
// budget cannot cover its estimated cost, and again after each failed
// attempt. The per-call spend is recorded asynchronously.
func (s *ReasoningService) Complete(ctx context.Context, t *tenant.Tenant, req CompletionRequest) (*CompletionResult, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = model.DefaultModel
	}

	modelID, err := s.fitToBudget(ctx, t, modelID, req)
	if err != nil {
		return nil, err
	}

	attempts := s.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Mid-flight failures also downgrade; a cheaper model both
			// spends less and usually sits on separate rate limits.
			if next := model.Cheaper(modelID); next != "" {
				s.logger.Info("downgrading model for retry",
					slog.String("from", modelID),
					slog.String("to", next),
					slog.Int("attempt", attempt))
				modelID = next
			}
			if err := s.sleep(ctx, s.backoffFor(lastErr, attempt)); err != nil {
				return nil, err
			}
		}

		res, err := s.attempt(ctx, modelID, req)
		if err != nil {
			lastErr = err
			s.logger.Warn("reasoning attempt failed",
				slog.String("model", modelID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		costUSD := model.EstimateCost(modelID, res.InputTokens, res.OutputTokens)
		result := &CompletionResult{
			Text:         res.Text,
			ModelID:      modelID,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
			CostUSD:      costUSD,
		}

		if s.tracker != nil {
			// Fire and forget: spend accounting must not delay the caller.
			go s.tracker.RecordCall(context.WithoutCancel(ctx), t.ID, result.ModelID, res.InputTokens, res.OutputTokens, costUSD)
		}
		return result, nil
	}

	if s.tracker != nil {
		s.tracker.RecordFailure(modelID)
	}
	return nil, fmt.Errorf("%w: completion failed after %d attempts: %w", domain.ErrProvider, attempts, lastErr)
}

// fitToBudget walks the fallback chain until the estimated call cost
// fits the tenant's remaining daily budget. When nothing fits it keeps
// the cheapest model; the budget guard denies the next run instead.
func (s *ReasoningService) fitToBudget(ctx context.Context, t *tenant.Tenant, modelID string, req CompletionRequest) (string, error) {
	remaining, err := s.budget.RemainingDaily(ctx, t)
	if err != nil {
		return "", fmt.Errorf("remaining budget: %w", err)
	}

	inTokens := model.EstimateTokens(req.Prompt + req.System)
	for {
		estimate := model.EstimateCost(modelID, inTokens, req.MaxTokens)
		if estimate <= remaining {
			return modelID, nil
		}
		next := model.Cheaper(modelID)
		if next == "" {
			s.logger.Warn("budget cannot cover even the cheapest model",
				slog.String("tenant_id", t.ID),
				slog.String("model", modelID),
				slog.Float64("estimate_usd", estimate),
				slog.Float64("remaining_usd", remaining))
			return modelID, nil
		}
		s.logger.Info("downgrading model to fit budget",
			slog.String("tenant_id", t.ID),
			slog.String("from", modelID),
			slog.String("to", next))
		modelID = next
	}
}

func (s *ReasoningService) attempt(ctx context.Context, modelID string, req CompletionRequest) (*reasoning.Response, error) {
	m := model.Lookup(modelID)
	provider, ok := s.providers[m.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: no provider configured for %s", domain.ErrProvider, m.Provider)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 || maxTokens > m.MaxOutputTokens {
		maxTokens = m.MaxOutputTokens
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	return provider.Complete(attemptCtx, reasoning.Request{
		APIModel:     m.APIModel,
		Prompt:       req.Prompt,
		System:       req.System,
		MaxTokens:    maxTokens,
		Temperature:  req.Temperature,
		JSONResponse: req.JSONResponse && m.SupportsJSON,
	})
}

// backoffFor honors an explicit throttle hint when present, otherwise
// doubles the base delay per attempt.
func (s *ReasoningService) backoffFor(lastErr error, attempt int) time.Duration {
	var throttled *reasoning.ThrottledError
	if errors.As(lastErr, &throttled) && throttled.RetryAfter > 0 {
		return throttled.RetryAfter
	}
	return s.backoffBase << (attempt - 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
