package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/database"
	"github.com/axiome/agentcore/internal/port/messagequeue"
)

// Consumer pulls events off the queue and feeds the orchestrator.
// Processing errors propagate to the queue for redelivery; the dedup
// layer makes redelivery safe. Undecodable messages go to the dead
// letter table instead of poisoning the stream.
type Consumer struct {
	queue        messagequeue.Queue
	orchestrator *Orchestrator
	store        database.Store
	logger       *slog.Logger
	cancel       func()
}

// NewConsumer creates the consumer.
func NewConsumer(q messagequeue.Queue, orch *Orchestrator, store database.Store, logger *slog.Logger) *Consumer {
	return &Consumer{queue: q, orchestrator: orch, store: store, logger: logger}
}

// Start subscribes to the ingest subject.
func (c *Consumer) Start(ctx context.Context) error {
	cancel, err := c.queue.Subscribe(ctx, messagequeue.SubjectEventIngest, c.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", messagequeue.SubjectEventIngest, err)
	}
	c.cancel = cancel
	return nil
}

// Stop cancels the subscription.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) handle(ctx context.Context, subject string, data []byte) error {
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.deadLetter(ctx, data, fmt.Errorf("decode event: %w", err))
		return nil // acked, redelivery cannot fix a malformed payload
	}
	if ev.ID == "" || ev.TenantID == "" {
		c.deadLetter(ctx, data, fmt.Errorf("event missing id or tenant"))
		return nil
	}

	if err := c.orchestrator.ProcessEvent(ctx, &ev); err != nil {
		c.logger.Warn("event processing failed, leaving for redelivery",
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (c *Consumer) deadLetter(ctx context.Context, data []byte, cause error) {
	// Best-effort identification for the operator.
	var partial struct {
		ID       string `json:"id"`
		TenantID string `json:"tenant_id"`
		Type     string `json:"type"`
	}
	_ = json.Unmarshal(data, &partial)

	dl := &database.DeadLetter{
		EventID:   partial.ID,
		TenantID:  partial.TenantID,
		EventType: partial.Type,
		Payload:   data,
		Error:     cause.Error(),
		FailedAt:  time.Now(),
	}
	if err := c.store.InsertDeadLetter(ctx, dl); err != nil {
		c.logger.Error("dead letter insert failed",
			slog.String("event_id", partial.ID),
			slog.String("error", err.Error()))
	}
	c.logger.Warn("event dead lettered",
		slog.String("event_id", partial.ID),
		slog.String("error", cause.Error()))
}
