package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFailedToParseRedisConnString = errors.New("redisstore: failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redisstore: redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redisstore: healthcheck failed")
)

// ConnectOptions controls how long Connect keeps trying to reach the server.
type ConnectOptions struct {
	URL            string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// Connect parses opts.URL and pings the server until it answers or the attempts run out.
func Connect(ctx context.Context, opts ConnectOptions) (*redis.Client, error) {
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	attempts := max(opts.RetryAttempts, 1)

	connOpt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	var lastErr error
	for range attempts {
		client := redis.NewClient(connOpt)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(opts.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Healthcheck returns a probe that pings the server.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
