// Package anthropic implements the reasoning provider port using the
// official Anthropic Messages client.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/axiome/agentcore/internal/port/reasoning"
)

// Provider wraps the Anthropic client behind the reasoning.Provider port.
type Provider struct {
	client anthropic.Client
}

var _ reasoning.Provider = (*Provider)(nil)

// New creates an Anthropic provider. baseURL overrides the API endpoint
// and is used by tests; pass "" for the production endpoint.
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// The reasoning client owns retry and timeout policy.
	opts = append(opts, option.WithMaxRetries(0))
	return &Provider{client: anthropic.NewClient(opts...)}
}

// Complete performs one message completion attempt. Anthropic has no
// native JSON response mode; structured output is a prompt contract.
func (p *Provider) Complete(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.APIModel),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.AsText().Text
			break
		}
	}

	return &reasoning.Response{
		Text:         text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// classify converts SDK errors, surfacing throttling with its retry hint.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) && apierr.StatusCode == 429 {
		return &reasoning.ThrottledError{
			RetryAfter: retryAfter(apierr),
			Err:        err,
		}
	}
	return fmt.Errorf("anthropic: %w", err)
}

func retryAfter(apierr *anthropic.Error) time.Duration {
	if apierr.Response == nil {
		return 0
	}
	if secs, err := strconv.Atoi(apierr.Response.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
