package workerpresentation

import (
	"context"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "use_case", "event").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 3+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// DeliveryMiddleware wraps a delivery handler so each job runs with an event-scoped
// logger and, when the job carries one, the span of the fan-out that produced it as
// remote parent.
func DeliveryMiddleware(base observability.Logger) func(delivery.Handler) delivery.Handler {
	return func(next delivery.Handler) delivery.Handler {
		return func(ctx context.Context, job delivery.Job) error {
			if job.Origin.IsValid() {
				ctx = trace.ContextWithRemoteSpanContext(ctx, job.Origin)
			}
			ctx = WithEventContext(ctx, base, job.Origin.TraceID(), job.Origin.SpanID(), map[string]string{
				"event_id": job.ID,
				"event":    "notification." + string(job.Notification.Status),
				"category": job.Notification.ProductType,
			})
			return next(ctx, job)
		}
	}
}
