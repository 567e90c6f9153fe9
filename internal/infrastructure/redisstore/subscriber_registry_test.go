package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/redisstore"
)

func newRegistry(t *testing.T) (*redisstore.SubscriberRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewSubscriberRegistry(client, ""), mr
}

func TestSubscriberRegistry_AddListRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, mr := newRegistry(t)

	_, err := r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://b", Name: "B"})
	require.NoError(t, err)
	_, err = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	require.NoError(t, err)

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{
		{URL: "http://a", Name: "A"},
		{URL: "http://b", Name: "B"},
	}, got)
	assert.True(t, mr.Exists(redisstore.DefaultKeyPrefix+"BOOK"))

	removed, err := r.Remove(ctx, "BOOK", "http://a")
	require.NoError(t, err)
	assert.Equal(t, domain.Subscriber{URL: "http://a", Name: "A"}, removed)

	got, err = r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{{URL: "http://b", Name: "B"}}, got)
}

func TestSubscriberRegistry_OverwriteSameURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, _ := newRegistry(t)

	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A2"})

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{{URL: "http://a", Name: "A2"}}, got)
}

func TestSubscriberRegistry_RemoveMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, _ := newRegistry(t)

	_, err := r.Remove(ctx, "BOOK", "http://a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubscriberRegistry_ServerDown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, mr := newRegistry(t)
	mr.Close()

	_, err := r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestConnectAndHealthcheck(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	client, err := redisstore.Connect(context.Background(), redisstore.ConnectOptions{
		URL:            "redis://" + mr.Addr() + "/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := redisstore.Healthcheck(client)
	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.ErrorIs(t, check(context.Background()), redisstore.ErrHealthcheckFailed)
}

func TestConnect_BadURL(t *testing.T) {
	t.Parallel()

	_, err := redisstore.Connect(context.Background(), redisstore.ConnectOptions{URL: "://nope"})
	assert.ErrorIs(t, err, redisstore.ErrFailedToParseRedisConnString)
}
