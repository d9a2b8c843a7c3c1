// Package openai implements the reasoning provider port using the
// official OpenAI Chat Completions client.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/axiome/agentcore/internal/port/reasoning"
)

// Provider wraps the OpenAI client behind the reasoning.Provider port.
type Provider struct {
	client openai.Client
}

var _ reasoning.Provider = (*Provider)(nil)

// New creates an OpenAI provider. baseURL overrides the API endpoint and
// is used by tests; pass "" for the production endpoint.
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// The reasoning client owns retry and timeout policy.
	opts = append(opts, option.WithMaxRetries(0))
	return &Provider{client: openai.NewClient(opts...)}
}

// Complete performs one chat completion attempt.
func (p *Provider) Complete(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.APIModel),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:         openai.Float(req.Temperature),
	}
	if req.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty completion for model %s", req.APIModel)
	}

	return &reasoning.Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// classify converts SDK errors, surfacing throttling with its retry hint.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == 429 {
		return &reasoning.ThrottledError{
			RetryAfter: retryAfter(apierr),
			Err:        err,
		}
	}
	return fmt.Errorf("openai: %w", err)
}

func retryAfter(apierr *openai.Error) time.Duration {
	if apierr.Response == nil {
		return 0
	}
	if secs, err := strconv.Atoi(apierr.Response.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
