// Package commerce defines the upstream commerce API boundary used by
// agents for side effects.
package commerce

import (
	"context"
	"time"
)

// DiscountRequest creates a one-time discount code for a customer.
type DiscountRequest struct {
	Title              string
	ValuePercent       int
	CustomerExternalID string
	StartsAt           time.Time
	EndsAt             time.Time
	UsageLimit         int
}

// Discount is the created discount as reported by the platform.
type Discount struct {
	Code      string
	ExpiresAt time.Time
}

// FollowupRequest schedules a delayed customer touchpoint.
type FollowupRequest struct {
	Kind               string
	CustomerExternalID string
	DelayDays          int
}

// Client is one tenant-scoped connection to the commerce platform.
type Client interface {
	TagCustomer(ctx context.Context, customerExternalID string, tags []string) error
	CreateDiscount(ctx context.Context, req DiscountRequest) (*Discount, error)
	ScheduleFollowup(ctx context.Context, req FollowupRequest) error
}

// ClientFactory builds a Client for a tenant's shop domain and credential.
type ClientFactory func(shopDomain, accessToken string) Client
