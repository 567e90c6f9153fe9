package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	domnotif "github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const endpointWebhook = "webhook"

// DeliveryResult describes one finished callback attempt.
type DeliveryResult struct {
	StatusCode int
	BodyBytes  int
}

// DeliverUseCase performs exactly one callback for one job. It never retries.
type DeliverUseCase struct {
	sender domnotif.Sender
	encode domnotif.Encoder
	instruments
}

type DeliverOption func(*DeliverUseCase)

// WithEncoder replaces the JSON encoder used to build callback bodies.
func WithEncoder(enc domnotif.Encoder) DeliverOption {
	return func(uc *DeliverUseCase) {
		if enc != nil {
			uc.encode = enc
		}
	}
}

func NewDeliverUseCase(sender domnotif.Sender, tel observability.Observability, opts ...DeliverOption) *DeliverUseCase {
	uc := &DeliverUseCase{
		sender:      sender,
		encode:      domnotif.Encode,
		instruments: newInstruments(tel),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *DeliverUseCase) Execute(ctx context.Context, job delivery.Job) (_ *DeliveryResult, err error) {
	n := job.Notification
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseDeliver),
		observability.F("delivery_id", job.ID),
		observability.F("subscriber_url", job.Endpoint),
		observability.F("subscriber_name", n.SubscriberName),
		observability.F("category", n.ProductType),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Deliver",
		attribute.String("use_case", useCaseDeliver),
		attribute.String("delivery.id", job.ID),
		attribute.String("subscriber.url", job.Endpoint),
		attribute.String("notification.status", string(n.Status)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &DeliveryResult{}

	defer func() {
		if span != nil && result.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", result.StatusCode))
		}
		endSpan(span, err, statusText)
		latency := time.Since(start).Seconds()
		uc.record(useCaseDeliver, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("http_status", result.StatusCode),
		}
		fields = append(fields, traceFields(trace.SpanContextFromContext(ctx))...)
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	body, err := uc.safeEncode(n)
	if err != nil {
		outcome, statusText = "error", "ENCODE_FAILED"
		return result, fmt.Errorf("notification: deliver %s: %w", job.ID, err)
	}
	result.BodyBytes = len(body)

	result.StatusCode, err = uc.send(ctx, job.Endpoint, body)
	if err != nil {
		outcome, statusText = "error", "CALLBACK_FAILED"
		return result, fmt.Errorf("notification: deliver %s: %w", job.ID, err)
	}
	return result, nil
}

// Handle adapts Execute to the delivery.Handler signature used by the worker pool.
func (uc *DeliverUseCase) Handle(ctx context.Context, job delivery.Job) error {
	_, err := uc.Execute(ctx, job)
	return err
}

func (uc *DeliverUseCase) safeEncode(n domnotif.Notification) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, fmt.Errorf("notification: encode panicked: %v", r)
		}
	}()
	return uc.encode(n)
}

func (uc *DeliverUseCase) send(ctx context.Context, endpoint string, body []byte) (int, error) {
	start := time.Now()
	code, err := uc.sender.Send(ctx, endpoint, body)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if ctx.Err() != nil {
			outcome = "canceled"
		}
	}

	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", deliverPeer),
			observability.L("endpoint", endpointWebhook),
			observability.L("outcome", outcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", deliverPeer),
			observability.L("endpoint", endpointWebhook),
		)
	}
	return code, err
}
