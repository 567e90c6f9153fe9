package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
)

const (
	userAgent        = "minishop-notify/1.0"
	maxErrorBodySize = 64 * 1024
)

var (
	ErrInvalidURL       = errors.New("webhook: invalid URL")
	ErrInvalidPayload   = errors.New("webhook: invalid payload")
	ErrUnexpectedStatus = errors.New("webhook: unexpected status")
	ErrTimeout          = errors.New("webhook: request timeout")
	ErrTemporaryFailure = errors.New("webhook: temporary failure")
)

// Sender POSTs notification bodies to subscriber endpoints. It makes exactly one
// attempt per call.
type Sender struct {
	client     *http.Client
	propagator propagation.TextMapPropagator
}

// NewSender returns a sender with pooled connections and the given per-request timeout.
// A zero timeout leaves requests bounded only by the caller's context.
func NewSender(timeout time.Duration) *Sender {
	return NewSenderWithClient(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	})
}

// NewSenderWithClient wraps a caller-provided client, e.g. an httptest server client.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client, propagator: otel.GetTextMapPropagator()}
}

var _ notification.Sender = (*Sender)(nil)

func (s *Sender) Send(ctx context.Context, endpoint string, body []byte) (int, error) {
	if err := validate(endpoint, body); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", notification.ContentType)
	req.Header.Set("User-Agent", userAgent)
	s.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(respBody), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		if msg == "" {
			return resp.StatusCode, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, msg)
	}

	return resp.StatusCode, nil
}

// validate restricts callbacks to absolute http(s) URLs.
func validate(endpoint string, body []byte) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: body cannot be empty", ErrInvalidPayload)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// WithPropagator overrides the propagator used to inject trace headers.
func (s *Sender) WithPropagator(p propagation.TextMapPropagator) *Sender {
	if p != nil {
		s.propagator = p
	}
	return s
}
