// Package billingport defines the event eligibility gate boundary.
// Plan management and payment flows live outside the core.
package billingport

import "context"

// Check is the gate's verdict for one tenant.
type Check struct {
	Allowed bool
	Reason  string
}

// Gate decides whether a tenant may have events processed at all.
// A denial is terminal for the event, not retryable.
type Gate interface {
	CanProcessEvent(ctx context.Context, tenantID string) (Check, error)
}
