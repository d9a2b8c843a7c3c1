// Package commerce provides an HTTP client for the upstream commerce
// platform's admin API, implementing the commerce port.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/resilience"
)

// Client talks to one shop's admin API using its access token.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	breaker     *resilience.Breaker
}

var _ commerce.Client = (*Client)(nil)

// NewClient creates a commerce client for one shop domain.
func NewClient(shopDomain, accessToken string) *Client {
	return &Client{
		baseURL:     "https://" + shopDomain + "/admin/api/2024-07",
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a client against an explicit base URL.
// Used by tests and proxy setups.
func NewClientWithBaseURL(baseURL, accessToken string) *Client {
	c := NewClient("", accessToken)
	c.baseURL = baseURL
	return c
}

// Factory adapts NewClient to the commerce.ClientFactory shape.
func Factory(shopDomain, accessToken string) commerce.Client {
	return NewClient(shopDomain, accessToken)
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// TagCustomer appends tags to a customer record.
func (c *Client) TagCustomer(ctx context.Context, customerExternalID string, tags []string) error {
	body, err := json.Marshal(map[string]any{
		"customer": map[string]any{"id": customerExternalID, "tags": tags},
	})
	if err != nil {
		return fmt.Errorf("marshal tag customer: %w", err)
	}

	path := fmt.Sprintf("/customers/%s/tags.json", customerExternalID)
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("tag customer: %w", err)
	}
	return nil
}

// CreateDiscount creates a one-time discount code and returns it.
func (c *Client) CreateDiscount(ctx context.Context, req commerce.DiscountRequest) (*commerce.Discount, error) {
	body, err := json.Marshal(map[string]any{
		"discount": map[string]any{
			"title":         req.Title,
			"value_type":    "percentage",
			"value":         fmt.Sprintf("-%d", req.ValuePercent),
			"customer_id":   req.CustomerExternalID,
			"starts_at":     req.StartsAt.Format(time.RFC3339),
			"ends_at":       req.EndsAt.Format(time.RFC3339),
			"usage_limit":   req.UsageLimit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal discount: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/discounts.json", body)
	if err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}

	var result struct {
		Discount struct {
			Code   string    `json:"code"`
			EndsAt time.Time `json:"ends_at"`
		} `json:"discount"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal discount: %w", err)
	}
	return &commerce.Discount{Code: result.Discount.Code, ExpiresAt: result.Discount.EndsAt}, nil
}

// ScheduleFollowup registers a delayed customer touchpoint.
func (c *Client) ScheduleFollowup(ctx context.Context, req commerce.FollowupRequest) error {
	body, err := json.Marshal(map[string]any{
		"followup": map[string]any{
			"kind":        req.Kind,
			"customer_id": req.CustomerExternalID,
			"delay_days":  req.DelayDays,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal followup: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/followups.json", body); err != nil {
		return fmt.Errorf("schedule followup: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.accessToken != "" {
			req.Header.Set("X-Access-Token", c.accessToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("commerce API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
