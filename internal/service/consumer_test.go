package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/axiome/agentcore/internal/domain/event"
	"github.com/axiome/agentcore/internal/port/messagequeue"
	"github.com/axiome/agentcore/internal/service"
)

// mockQueue captures the subscription handler so tests can inject
// messages directly.
type mockQueue struct {
	mu       sync.Mutex
	handler  messagequeue.Handler
	messages [][]byte
}

func (m *mockQueue) Publish(_ context.Context, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, h messagequeue.Handler) (func(), error) {
	m.handler = h
	return func() {}, nil
}

func (m *mockQueue) Drain() error { return nil }
func (m *mockQueue) Close() error { return nil }

func TestConsumerDeadLettersMalformedPayloads(t *testing.T) {
	store := newMockStore()
	orch, _ := newTestOrchestrator(t, store, &allowGate{})

	q := &mockQueue{}
	c := service.NewConsumer(q, orch, store, discardLogger())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	// Malformed JSON is acked (nil) so the queue stops redelivering it.
	if err := q.handler(context.Background(), messagequeue.SubjectEventIngest, []byte("{broken")); err != nil {
		t.Fatalf("handler err = %v, want nil for malformed payload", err)
	}
	if len(store.deadLetters) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(store.deadLetters))
	}

	// Decodable but incomplete events dead-letter too.
	incomplete, _ := json.Marshal(map[string]any{"type": "order.created"})
	if err := q.handler(context.Background(), messagequeue.SubjectEventIngest, incomplete); err != nil {
		t.Fatalf("handler err = %v", err)
	}
	if len(store.deadLetters) != 2 {
		t.Fatalf("dead letters = %d, want 2", len(store.deadLetters))
	}
}

func TestConsumerPropagatesProcessingErrors(t *testing.T) {
	store := newMockStore()
	orch, _ := newTestOrchestrator(t, store, &allowGate{})
	store.tenantErr = errors.New("database down")

	q := &mockQueue{}
	c := service.NewConsumer(q, orch, store, discardLogger())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	data, _ := json.Marshal(testEvent("ev1"))
	if err := q.handler(context.Background(), messagequeue.SubjectEventIngest, data); err == nil {
		t.Fatal("processing failure was swallowed instead of propagated for redelivery")
	}
	if len(store.deadLetters) != 0 {
		t.Error("retryable failure was dead lettered")
	}
}

func TestPublisherRoundtrip(t *testing.T) {
	q := &mockQueue{}
	p := service.NewPublisher(q)

	ev := testEvent("ev9")
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(q.messages) != 1 {
		t.Fatalf("messages = %d", len(q.messages))
	}

	var decoded event.Event
	if err := json.Unmarshal(q.messages[0], &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "ev9" || decoded.Type != event.TypeCheckoutStarted {
		t.Errorf("decoded = %+v", decoded)
	}
}
