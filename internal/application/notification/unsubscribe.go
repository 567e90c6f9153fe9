package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type UnsubscribeInput struct {
	Category string
	URL      string
}

type UnsubscribeUseCase struct {
	registry subscriber.Registry
	instruments
}

func NewUnsubscribeUseCase(registry subscriber.Registry, tel observability.Observability) *UnsubscribeUseCase {
	return &UnsubscribeUseCase{registry: registry, instruments: newInstruments(tel)}
}

// Execute removes the subscriber with exactly in.URL from the normalized category and
// returns it. It fails with ErrNotFound when no such subscriber exists.
func (uc *UnsubscribeUseCase) Execute(ctx context.Context, in UnsubscribeInput) (_ subscriber.Subscriber, err error) {
	category := subscriber.NormalizeCategory(in.Category)
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseUnsubscribe),
		observability.F("category", category),
		observability.F("subscriber_url", in.URL),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Unsubscribe",
		attribute.String("use_case", useCaseUnsubscribe),
		attribute.String("subscriber.category", category),
		attribute.String("subscriber.url", in.URL),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		endSpan(span, err, statusText)
		latency := time.Since(start).Seconds()
		uc.record(useCaseUnsubscribe, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		fields = append(fields, traceFields(trace.SpanContextFromContext(ctx))...)
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	removed, err := uc.registry.Remove(ctx, category, in.URL)
	switch {
	case errors.Is(err, subscriber.ErrNotFound):
		outcome, statusText = "not_found", "NOT_FOUND"
		return subscriber.Subscriber{}, fmt.Errorf("notification: unsubscribe %q from %s: %w", in.URL, category, ErrNotFound)
	case err != nil:
		outcome, statusText = "error", "REGISTRY_FAILED"
		return subscriber.Subscriber{}, fmt.Errorf("%w: remove %s: %w", ErrRegistry, category, err)
	}
	return removed, nil
}
