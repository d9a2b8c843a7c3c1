package commerce_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/axiome/agentcore/internal/adapter/commerce"
	portcommerce "github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/resilience"
)

func TestCreateDiscount(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Access-Token")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"discount": map[string]any{"code": "SAVE10", "ends_at": time.Now().Add(72 * time.Hour)},
		})
	}))
	defer srv.Close()

	c := commerce.NewClientWithBaseURL(srv.URL, "tok-123")
	now := time.Now()
	d, err := c.CreateDiscount(context.Background(), portcommerce.DiscountRequest{
		Title:              "Come back",
		ValuePercent:       10,
		CustomerExternalID: "cust-1",
		StartsAt:           now,
		EndsAt:             now.Add(72 * time.Hour),
		UsageLimit:         1,
	})
	if err != nil {
		t.Fatalf("create discount: %v", err)
	}
	if d.Code != "SAVE10" {
		t.Errorf("code = %s", d.Code)
	}
	if gotPath != "/discounts.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotToken != "tok-123" {
		t.Errorf("token header = %q", gotToken)
	}
}

func TestTagCustomerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors": "tag invalid"}`))
	}))
	defer srv.Close()

	c := commerce.NewClientWithBaseURL(srv.URL, "tok")
	if err := c.TagCustomer(context.Background(), "cust-1", []string{"vip"}); err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestBreakerStopsRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := commerce.NewClientWithBaseURL(srv.URL, "tok")
	c.SetBreaker(resilience.NewBreaker("test", 2, time.Minute))

	ctx := context.Background()
	_ = c.ScheduleFollowup(ctx, portcommerce.FollowupRequest{Kind: "x", CustomerExternalID: "c", DelayDays: 1})
	_ = c.ScheduleFollowup(ctx, portcommerce.FollowupRequest{Kind: "x", CustomerExternalID: "c", DelayDays: 1})

	err := c.ScheduleFollowup(ctx, portcommerce.FollowupRequest{Kind: "x", CustomerExternalID: "c", DelayDays: 1})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want open circuit", err)
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}
