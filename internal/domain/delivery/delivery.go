package delivery

import (
	"context"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	"go.opentelemetry.io/otel/trace"
)

// Job is one pending callback to one subscriber.
type Job struct {
	ID           string
	Endpoint     string
	Notification notification.Notification
	// Origin links the delivery back to the span that triggered the fan-out.
	Origin trace.SpanContext
}

// Handler performs a job. Returned errors are recorded by the runner and never retried.
type Handler func(ctx context.Context, job Job) error

// Queue accepts jobs for asynchronous execution. Enqueue must not wait for the job to run.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}
