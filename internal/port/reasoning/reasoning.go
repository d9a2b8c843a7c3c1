// Package reasoning defines the port interface for reasoning providers.
package reasoning

import (
	"context"
	"fmt"
	"time"
)

// Request is a single completion attempt against one concrete API model.
type Request struct {
	APIModel     string
	Prompt       string
	System       string
	MaxTokens    int
	Temperature  float64
	JSONResponse bool
}

// Response is the provider's raw completion result with usage counts.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is one reasoning provider family behind the client.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ThrottledError signals the provider rejected the call for throttling.
// RetryAfter carries the provider's explicit wait hint, zero if absent.
type ThrottledError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ThrottledError) Unwrap() error { return e.Err }
