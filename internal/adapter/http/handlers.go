package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/database"
	"github.com/axiome/agentcore/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Store     database.Store
	Publisher *service.Publisher
}

// ingestRequest is the inbound event envelope.
type ingestRequest struct {
	TenantID        string          `json:"tenant_id"`
	UpstreamEventID string          `json:"upstream_event_id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Payload         json.RawMessage `json:"payload"`
}

// IngestEvent accepts one event, persists it and enqueues it for
// asynchronous processing. Accepting is cheap; all heavy work happens
// off this request path.
func (h *Handlers) IngestEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[ingestRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.TenantID, "tenant_id") || !requireField(w, req.Type, "type") {
		return
	}

	source := event.Source(req.Source)
	if source == "" {
		source = event.SourceCommerce
	}

	ev := &event.Event{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		UpstreamEventID: req.UpstreamEventID,
		Type:            event.Type(req.Type),
		Source:          source,
		Payload:         req.Payload,
		ReceivedAt:      time.Now().UTC(),
	}

	if err := h.Store.CreateEvent(r.Context(), ev); err != nil {
		writeDomainError(w, err, "event not stored")
		return
	}

	if err := h.Publisher.Publish(r.Context(), ev); err != nil {
		// The row exists; a replay tool can re-enqueue it later.
		writeDomainError(w, err, "event not enqueued")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": ev.ID})
}

// GetEvent returns one stored event.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Store.GetEvent(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// ListRuns returns a tenant's most recent agent runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	tenantID := urlParam(r, "tenantID")
	limit := queryInt(r, "limit", 50)

	runs, err := h.Store.RecentRuns(r.Context(), tenantID, limit)
	if err != nil {
		writeDomainError(w, err, "runs not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// CostSummary returns a tenant's aggregate spend since a cutoff.
// Query: days (default 30).
func (h *Handlers) CostSummary(w http.ResponseWriter, r *http.Request) {
	tenantID := urlParam(r, "tenantID")
	days := queryInt(r, "days", 30)
	since := time.Now().UTC().AddDate(0, 0, -days)

	summary, err := h.Store.CostSummary(r.Context(), tenantID, since)
	if err != nil {
		writeDomainError(w, err, "summary not available")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListDeadLetters returns a tenant's unresolved dead letters.
func (h *Handlers) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	tenantID := urlParam(r, "tenantID")
	limit := queryInt(r, "limit", 50)

	letters, err := h.Store.ListDeadLetters(r.Context(), tenantID, limit)
	if err != nil {
		writeDomainError(w, err, "dead letters not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dead_letters": letters})
}

// ResolveDeadLetter marks one dead letter handled.
func (h *Handlers) ResolveDeadLetter(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ResolveDeadLetter(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "dead letter not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
