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

type ListSubscribersUseCase struct {
	registry subscriber.Registry
	instruments
}

func NewListSubscribersUseCase(registry subscriber.Registry, tel observability.Observability) *ListSubscribersUseCase {
	return &ListSubscribersUseCase{registry: registry, instruments: newInstruments(tel)}
}

func (uc *ListSubscribersUseCase) Execute(ctx context.Context, category string) (_ []subscriber.Subscriber, err error) {
	category = subscriber.NormalizeCategory(category)
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseListSubscribers),
		observability.F("category", category),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ListSubscribers",
		attribute.String("use_case", useCaseListSubscribers),
		attribute.String("subscriber.category", category),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var count int

	defer func() {
		endSpan(span, err, statusText)
		latency := time.Since(start).Seconds()
		uc.record(useCaseListSubscribers, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("subscribers", count),
		}
		fields = append(fields, traceFields(trace.SpanContextFromContext(ctx))...)
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	subs, err := uc.registry.List(ctx, category)
	if err != nil {
		outcome, statusText = "error", "REGISTRY_FAILED"
		return nil, fmt.Errorf("%w: list %s: %w", ErrRegistry, category, err)
	}
	count = len(subs)
	if subs == nil {
		subs = []subscriber.Subscriber{}
	}
	return subs, nil
}
