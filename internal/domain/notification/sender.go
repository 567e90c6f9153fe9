package notification

import "context"

// ContentType is the format marker sent with every callback body.
const ContentType = "application/json"

// Sender performs a single outbound callback and reports the HTTP status it received.
// Non-2xx responses are returned as errors.
type Sender interface {
	Send(ctx context.Context, endpoint string, body []byte) (statusCode int, err error)
}
