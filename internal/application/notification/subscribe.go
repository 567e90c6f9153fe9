package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SubscribeInput struct {
	Category   string
	Subscriber subscriber.Subscriber
}

type SubscribeUseCase struct {
	registry subscriber.Registry
	instruments
}

func NewSubscribeUseCase(registry subscriber.Registry, tel observability.Observability) *SubscribeUseCase {
	return &SubscribeUseCase{registry: registry, instruments: newInstruments(tel)}
}

// Execute stores the subscriber under the normalized category. A subscriber already
// registered with the same URL is replaced.
func (uc *SubscribeUseCase) Execute(ctx context.Context, in SubscribeInput) (_ subscriber.Subscriber, err error) {
	category := subscriber.NormalizeCategory(in.Category)
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseSubscribe),
		observability.F("category", category),
		observability.F("subscriber_url", in.Subscriber.URL),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Subscribe",
		attribute.String("use_case", useCaseSubscribe),
		attribute.String("subscriber.category", category),
		attribute.String("subscriber.url", in.Subscriber.URL),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		endSpan(span, err, statusText)
		latency := time.Since(start).Seconds()
		uc.record(useCaseSubscribe, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("subscriber_name", in.Subscriber.Name),
		}
		fields = append(fields, traceFields(trace.SpanContextFromContext(ctx))...)
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	stored, err := uc.registry.Add(ctx, category, in.Subscriber)
	if err != nil {
		outcome, statusText = "error", "REGISTRY_FAILED"
		return subscriber.Subscriber{}, fmt.Errorf("%w: add %s: %w", ErrRegistry, category, err)
	}
	return stored, nil
}
