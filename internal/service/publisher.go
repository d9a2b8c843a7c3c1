package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/messagequeue"
)

// Publisher hands accepted events to the queue for asynchronous
// processing.
type Publisher struct {
	queue messagequeue.Queue
}

// NewPublisher creates the publisher.
func NewPublisher(q messagequeue.Queue) *Publisher {
	return &Publisher{queue: q}
}

// Publish enqueues one event on the ingest subject.
func (p *Publisher) Publish(ctx context.Context, ev *event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	if err := p.queue.Publish(ctx, messagequeue.SubjectEventIngest, data); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.ID, err)
	}
	return nil
}
