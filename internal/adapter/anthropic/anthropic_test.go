package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/axiome/agentcore/internal/adapter/anthropic"
	"github.com/axiome/agentcore/internal/port/reasoning"
)

func TestCompleteParsesTextBlock(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg-1",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-3-20240307",
			"content": [{"type": "text", "text": "{\"action\":\"tag_vip\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 33, "output_tokens": 9}
		}`))
	}))
	defer srv.Close()

	p := anthropic.New("test-key", srv.URL)
	resp, err := p.Complete(context.Background(), reasoning.Request{
		APIModel:  "claude-haiku-3-20240307",
		Prompt:    "decide",
		System:    "be terse",
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != `{"action":"tag_vip"}` {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.InputTokens != 33 || resp.OutputTokens != 9 {
		t.Errorf("usage = %d/%d, want 33/9", resp.InputTokens, resp.OutputTokens)
	}
	if gotBody["model"] != "claude-haiku-3-20240307" {
		t.Errorf("model sent = %v", gotBody["model"])
	}
}

func TestCompleteThrottledCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "rate limited"}}`))
	}))
	defer srv.Close()

	p := anthropic.New("test-key", srv.URL)
	_, err := p.Complete(context.Background(), reasoning.Request{APIModel: "claude-haiku-3-20240307", Prompt: "p", MaxTokens: 10})
	if err == nil {
		t.Fatal("expected throttle error")
	}

	var throttled *reasoning.ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("err = %v, want ThrottledError", err)
	}
	if throttled.RetryAfter != 3*time.Second {
		t.Errorf("retry after = %s, want 3s", throttled.RetryAfter)
	}
}
