// Package event defines the commerce event domain entity.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of commerce event.
type Type string

const (
	TypeOrderCreated      Type = "order.created"
	TypeOrderUpdated      Type = "order.updated"
	TypeOrderFulfilled    Type = "order.fulfilled"
	TypeOrderCancelled    Type = "order.cancelled"
	TypeCheckoutStarted   Type = "checkout.started"
	TypeCheckoutCompleted Type = "checkout.completed"
	TypeCustomerCreated   Type = "customer.created"
	TypeCustomerUpdated   Type = "customer.updated"
	TypeCartUpdated       Type = "cart.updated"
	TypeTicketCreated     Type = "support.ticket.created"
	TypeTicketResolved    Type = "support.ticket.resolved"
)

// Source identifies the upstream system that emitted an event.
type Source string

const (
	SourceCommerce Source = "commerce"
	SourceSupport  Source = "support"
	SourceInternal Source = "internal"
)

// Event represents a single inbound business event. Immutable once created.
// Delivery from upstream is at-least-once; the same event may be seen twice.
type Event struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	UpstreamEventID string          `json:"upstream_event_id,omitempty"`
	Type            Type            `json:"type"`
	Source          Source          `json:"source"`
	Payload         json.RawMessage `json:"payload"`
	ReceivedAt      time.Time       `json:"received_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

// PayloadMap decodes the raw payload into a generic map.
// Returns an empty map for an absent or malformed payload.
func (e *Event) PayloadMap() map[string]any {
	m := map[string]any{}
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &m)
	}
	return m
}
