package notification

import (
	"errors"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	notificationService = "notification-service"
	spanPrefix          = "UC."

	useCaseSubscribe       = "notification.subscribe"
	useCaseUnsubscribe     = "notification.unsubscribe"
	useCaseListSubscribers = "notification.list_subscribers"
	useCaseNotify          = "notification.notify"
	useCaseDeliver         = "notification.deliver"

	deliverPeer = "subscriber"
)

var (
	ErrNotFound = subscriber.ErrNotFound
	// ErrRegistry marks any registry failure other than a missing subscriber.
	ErrRegistry = errors.New("notification: registry failure")
)

// instruments is the set of telemetry handles shared by every use case in this package.
type instruments struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newInstruments(tel observability.Observability) instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return instruments{
		log:          tel.Logger().With(observability.F("service", notificationService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in instruments) record(useCase, outcome string, latency float64) {
	if in.reqCounter != nil {
		in.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
	if in.durHistogram != nil {
		in.durHistogram.Observe(latency, observability.L("use_case", useCase))
	}
}

func traceFields(sc trace.SpanContext) []observability.Field {
	if !sc.IsValid() {
		return nil
	}
	return []observability.Field{
		observability.F("trace_id", sc.TraceID().String()),
		observability.F("span_id", sc.SpanID().String()),
	}
}

func endSpan(span trace.Span, err error, status string) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	} else {
		span.SetStatus(codes.Ok, status)
	}
	span.End()
}
