package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "oneseek"

// StartTurnSpan starts a span for a full conversational turn.
func StartTurnSpan(ctx context.Context, turnID, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "turn",
		trace.WithAttributes(
			attribute.String("turn.id", turnID),
			attribute.String("session.id", sessionID),
		),
	)
}

// StartStageSpan starts a span for one orchestrator stage within a turn.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "stage",
		trace.WithAttributes(
			attribute.String("stage.name", stage),
		),
	)
}

// StartRetrievalSpan starts a span for one retrieval pass over the catalog.
func StartRetrievalSpan(ctx context.Context, catalogSize int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "retrieval",
		trace.WithAttributes(
			attribute.Int("catalog.size", catalogSize),
		),
	)
}

// StartDecisionSpan starts a span for a structured decision call.
func StartDecisionSpan(ctx context.Context, purpose string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision",
		trace.WithAttributes(
			attribute.String("decision.purpose", purpose),
		),
	)
}
