// Package nats implements the message queue port on NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/axiome/agentcore/internal/port/messagequeue"
)

const (
	streamName    = "AXIOME"
	durablePrefix = "agentcore-"

	// Redeliveries beyond this are almost certainly a poisoned message;
	// the consumer dead-letters decode failures itself, so anything still
	// failing after five passes is stuck on a transient-looking error.
	maxDeliver = 5
	ackWait    = 2 * time.Minute
)

// Queue is a JetStream-backed messagequeue.Queue. All event subjects live
// on one stream so ingest and dead-letter traffic share retention policy.
type Queue struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

var _ messagequeue.Queue = (*Queue)(nil)

// Connect dials NATS and makes sure the event stream exists.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Queue, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"events.>"},
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", streamName, err)
	}

	logger.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{conn: conn, js: js, logger: logger}, nil
}

func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := q.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches a durable consumer to subject. A handler error naks
// the message for redelivery; the idempotency ledger makes redelivery safe.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName(subject),
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure consumer for %s: %w", subject, err)
	}

	cons, err := consumer.Consume(q.dispatch(handler))
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", subject, err)
	}
	return cons.Stop, nil
}

func (q *Queue) dispatch(handler messagequeue.Handler) jetstream.MessageHandler {
	return func(msg jetstream.Msg) {
		if err := handler(context.Background(), msg.Subject(), msg.Data()); err != nil {
			q.logger.Error("message handler failed",
				"subject", msg.Subject(), "error", err)
			if err := msg.Nak(); err != nil {
				q.logger.Error("nak failed", "error", err)
			}
			return
		}
		if err := msg.Ack(); err != nil {
			q.logger.Error("ack failed", "error", err)
		}
	}
}

// Drain flushes in-flight messages before closing the connection.
func (q *Queue) Drain() error {
	return q.conn.Drain()
}

func (q *Queue) Close() error {
	q.conn.Close()
	return nil
}

// durableName derives a stable consumer name from the subject so restarts
// resume the same cursor. Subject tokens become name-safe dashes.
func durableName(subject string) string {
	replacer := strings.NewReplacer(".", "-", "*", "any", ">", "all")
	return durablePrefix + replacer.Replace(subject)
}
