package delivery_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domdelivery "github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/delivery"
	infraobs "github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
)

func newTelemetry(t *testing.T) (observability.Observability, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New(reg, "", ""))
	return infraobs.New(nil, nil, counters, histograms), reg
}

func deliveriesWithOutcome(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != string(observability.MNotificationDeliveries) {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestPool_RunsEveryJobAndDrains(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]bool{}
	handler := func(_ context.Context, job domdelivery.Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		return nil
	}
	tel, reg := newTelemetry(t)
	pool := delivery.NewPool(handler, delivery.Options{Workers: 4, QueueSize: 64}, tel)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: fmt.Sprint(i)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, pool.Drain(ctx))

	mu.Lock()
	assert.Len(t, seen, 50)
	mu.Unlock()
	stats := pool.Stats()
	assert.Equal(t, uint64(50), stats.Enqueued)
	assert.Equal(t, uint64(50), stats.Processed)
	assert.Zero(t, stats.Pending)
	assert.Equal(t, 50.0, deliveriesWithOutcome(t, reg, "success"))
}

func TestPool_JobsRunConcurrently(t *testing.T) {
	t.Parallel()

	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	handler := func(_ context.Context, _ domdelivery.Job) error {
		started.Done()
		<-release
		return nil
	}
	pool := delivery.NewPool(handler, delivery.Options{Workers: 2, QueueSize: 2}, nil)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "a"}))
	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "b"}))

	bothStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(bothStarted)
	}()
	select {
	case <-bothStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run concurrently")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, pool.Drain(ctx))
}

func TestPool_HandlerErrorsAndPanicsAreContained(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	handler := func(_ context.Context, job domdelivery.Job) error {
		ran.Add(1)
		switch job.ID {
		case "fail":
			return errors.New("connection refused")
		case "panic":
			panic("encoder exploded")
		}
		return nil
	}
	tel, reg := newTelemetry(t)
	pool := delivery.NewPool(handler, delivery.Options{Workers: 1, QueueSize: 8}, tel)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	for _, id := range []string{"fail", "panic", "ok"} {
		require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: id}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, pool.Drain(ctx))

	assert.Equal(t, int32(3), ran.Load())
	assert.Equal(t, 1.0, deliveriesWithOutcome(t, reg, "failure"))
	assert.Equal(t, 1.0, deliveriesWithOutcome(t, reg, "panic"))
	assert.Equal(t, 1.0, deliveriesWithOutcome(t, reg, "success"))
}

func TestPool_EnqueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	running := make(chan struct{}, 1)
	handler := func(_ context.Context, _ domdelivery.Job) error {
		running <- struct{}{}
		<-release
		return nil
	}
	tel, reg := newTelemetry(t)
	pool := delivery.NewPool(handler, delivery.Options{Workers: 1, QueueSize: 1}, tel)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "busy"}))
	<-running
	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "queued"}))

	err := pool.Enqueue(context.Background(), domdelivery.Job{ID: "overflow"})
	assert.ErrorIs(t, err, delivery.ErrQueueFull)
	assert.Equal(t, uint64(1), pool.Stats().Dropped)
	assert.Equal(t, 1.0, deliveriesWithOutcome(t, reg, "dropped"))

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, pool.Drain(ctx))
	assert.Equal(t, uint64(2), pool.Stats().Processed)
}

func TestPool_DrainTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	handler := func(_ context.Context, _ domdelivery.Job) error {
		<-release
		return nil
	}
	pool := delivery.NewPool(handler, delivery.Options{Workers: 1, QueueSize: 1}, nil)
	pool.Start(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "hung"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, pool.Drain(ctx))
}

func TestPool_StopCancelsInFlightAndRejectsNewJobs(t *testing.T) {
	t.Parallel()

	cancelled := make(chan struct{})
	running := make(chan struct{})
	handler := func(ctx context.Context, _ domdelivery.Job) error {
		close(running)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}
	pool := delivery.NewPool(handler, delivery.Options{Workers: 1, QueueSize: 4}, nil)
	pool.Start(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "slow"}))
	<-running

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pool.Stop(stopCtx)

	select {
	case <-cancelled:
	default:
		t.Fatal("in-flight job was not cancelled")
	}
	assert.ErrorIs(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: "late"}), delivery.ErrPoolClosed)
	pool.Stop(stopCtx)
}

func TestPool_DefaultsApply(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	pool := delivery.NewPool(func(context.Context, domdelivery.Job) error {
		ran.Add(1)
		return nil
	}, delivery.Options{}, nil)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Enqueue(context.Background(), domdelivery.Job{ID: fmt.Sprint(i)}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, pool.Drain(ctx))
	assert.Equal(t, int32(10), ran.Load())
}
