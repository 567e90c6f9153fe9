package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	domnotif "github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type NotifyInput struct {
	Category string
	Status   domnotif.Status
	Product  product.Product
}

// NotifyResult counts what happened at fan-out time. Delivery outcomes are not part of it.
type NotifyResult struct {
	Category    string
	Subscribers int
	Enqueued    int
	Dropped     int
}

type NotifyUseCase struct {
	registry subscriber.Registry
	queue    delivery.Queue
	newID    func() string
	instruments
}

func NewNotifyUseCase(registry subscriber.Registry, queue delivery.Queue, tel observability.Observability) *NotifyUseCase {
	return &NotifyUseCase{
		registry:    registry,
		queue:       queue,
		newID:       uuid.NewString,
		instruments: newInstruments(tel),
	}
}

// Execute builds the notification once, reads the current subscribers of the category
// and hands one job per subscriber to the queue. It returns without waiting for any
// delivery. A rejected job is counted in Dropped and does not stop the fan-out.
func (uc *NotifyUseCase) Execute(ctx context.Context, in NotifyInput) (_ *NotifyResult, err error) {
	category := subscriber.NormalizeCategory(in.Category)
	result := &NotifyResult{Category: category}
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseNotify),
		observability.F("category", category),
		observability.F("status", string(in.Status)),
		observability.F("product_id", in.Product.ID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Notify",
		attribute.String("use_case", useCaseNotify),
		attribute.String("notification.category", category),
		attribute.String("notification.status", string(in.Status)),
		attribute.Int64("product.id", in.Product.ID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		if span != nil {
			span.SetAttributes(
				attribute.Int("notification.subscribers", result.Subscribers),
				attribute.Int("notification.dropped", result.Dropped),
			)
		}
		endSpan(span, err, statusText)
		latency := time.Since(start).Seconds()
		uc.record(useCaseNotify, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status_text", statusText),
			observability.F("latency_seconds", latency),
			observability.F("subscribers", result.Subscribers),
			observability.F("enqueued", result.Enqueued),
			observability.F("dropped", result.Dropped),
		}
		fields = append(fields, traceFields(trace.SpanContextFromContext(ctx))...)
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	base := domnotif.New(in.Product, in.Status, category)

	subs, err := uc.registry.List(ctx, category)
	if err != nil {
		outcome, statusText = "error", "REGISTRY_FAILED"
		return result, fmt.Errorf("%w: list %s: %w", ErrRegistry, category, err)
	}
	result.Subscribers = len(subs)

	origin := trace.SpanContextFromContext(ctx)
	for _, s := range subs {
		job := delivery.Job{
			ID:           uc.newID(),
			Endpoint:     s.URL,
			Notification: base.For(s.Name),
			Origin:       origin,
		}
		if qerr := uc.queue.Enqueue(ctx, job); qerr != nil {
			result.Dropped++
			continue
		}
		result.Enqueued++
	}

	if result.Dropped > 0 {
		outcome, statusText = "partial", "JOBS_DROPPED"
	}
	return result, nil
}
