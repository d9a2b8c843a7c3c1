// Package agents contains the built-in decision units: conversion,
// retention and support. Each one turns a slice of the event context
// into a model prompt, parses the structured decision and executes the
// chosen action against the commerce platform.
package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/axiome/agentcore/internal/domain/agent"
	"github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/service"
)

// rawDecision is the JSON shape agents ask the model to produce.
type rawDecision struct {
	Action          string         `json:"action"`
	Params          map[string]any `json:"params"`
	Reasoning       string         `json:"reasoning"`
	Confidence      float64        `json:"confidence"`
	EstimatedImpact float64        `json:"estimated_impact"`
}

// parseDecision decodes the model's JSON output into a Decision,
// tolerating markdown code fences around the object.
func parseDecision(text string, res *service.CompletionResult) (*agent.Decision, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw rawDecision
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("parse model decision: %w", err)
	}
	if raw.Action == "" {
		return nil, errors.New("model decision has no action")
	}

	if raw.Confidence < 0 {
		raw.Confidence = 0
	}
	if raw.Confidence > 1 {
		raw.Confidence = 1
	}

	return &agent.Decision{
		Action:          raw.Action,
		Params:          raw.Params,
		Reasoning:       raw.Reasoning,
		Confidence:      raw.Confidence,
		EstimatedImpact: raw.EstimatedImpact,
		TokensUsed:      res.InputTokens + res.OutputTokens,
		CostUSD:         res.CostUSD,
	}, nil
}

// commerceFor builds the tenant's commerce client from the decrypted
// credential in the context. Fails when no credential is available.
func commerceFor(factory commerce.ClientFactory, ac *agent.Context) (commerce.Client, error) {
	if ac.AccessToken == "" {
		return nil, errors.New("no commerce credential available")
	}
	return factory(ac.Tenant.Settings.ShopDomain, ac.AccessToken), nil
}

// customerSummary renders the customer block shared by all prompts.
func customerSummary(ac *agent.Context) string {
	c := ac.Customer
	if c == nil {
		return "Customer: unknown (no profile on record)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", c.Email)
	fmt.Fprintf(&b, "Total orders: %d, total spent: $%.2f\n", c.TotalOrders, c.TotalSpent)
	if c.DaysSinceLastOrder != nil {
		fmt.Fprintf(&b, "Days since last order: %d\n", *c.DaysSinceLastOrder)
	} else {
		b.WriteString("Never ordered before\n")
	}
	if c.IsRepeatBuyer {
		b.WriteString("Repeat buyer\n")
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	return b.String()
}

func paramString(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
