package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/axiome/agentcore"

// StartEventSpan opens a span covering one event's full processing pass.
func StartEventSpan(ctx context.Context, tenantID, eventID, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "event.process",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("event.id", eventID),
			attribute.String("event.type", eventType),
		),
	)
}

// StartAgentSpan opens a span for a single agent's run within an event.
func StartAgentSpan(ctx context.Context, agentType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.run",
		trace.WithAttributes(attribute.String("agent.type", agentType)),
	)
}

// StartReasoningSpan opens a span for one model completion attempt chain.
func StartReasoningSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "reasoning.complete",
		trace.WithAttributes(attribute.String("reasoning.model", model)),
	)
}

// EndSpan records err on span if non-nil, then ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
