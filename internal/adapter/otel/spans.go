package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jobtrail"

// StartProposeSpan starts a span for one proposal run.
func StartProposeSpan(ctx context.Context, limit, policies int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "propose",
		trace.WithAttributes(
			attribute.Int("propose.limit", limit),
			attribute.Int("propose.policies", policies),
		),
	)
}

// StartExecuteSpan starts a span for executing one approved action.
func StartExecuteSpan(ctx context.Context, proposalID, actionType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "execute",
		trace.WithAttributes(
			attribute.String("proposal.id", proposalID),
			attribute.String("action.type", actionType),
		),
	)
}
