package delivery

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	domdelivery "github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
)

const (
	componentPool     = "delivery_pool"
	drainPollInterval = 10 * time.Millisecond

	DefaultWorkers   = 8
	DefaultQueueSize = 1024
)

var (
	ErrPoolClosed = errors.New("delivery: pool is closed")
	ErrQueueFull  = errors.New("delivery: queue is full")
)

// Options sizes the pool. Zero values fall back to the defaults.
type Options struct {
	Workers   int
	QueueSize int
}

// Stats is a point-in-time view of the pool counters.
type Stats struct {
	Enqueued  uint64
	Processed uint64
	Dropped   uint64
	Pending   int64
}

// Pool runs delivery jobs on a fixed set of workers fed by a bounded queue.
// Enqueue never waits: when the queue is full the job is dropped.
type Pool struct {
	handler     domdelivery.Handler
	queue       chan domdelivery.Job
	concurrency int

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	workers   sync.WaitGroup
	closed    atomic.Bool

	pending   atomic.Int64
	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64

	log        observability.Logger
	deliveries observability.Counter // notification_deliveries_total{outcome}
}

var _ domdelivery.Queue = (*Pool)(nil)

func NewPool(handler domdelivery.Handler, opts Options, tel observability.Observability) *Pool {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Pool{
		handler:     handler,
		queue:       make(chan domdelivery.Job, opts.QueueSize),
		concurrency: opts.Workers,
		log:         tel.Logger().With(observability.F("component", componentPool)),
		deliveries:  tel.Metrics().Counter(observability.MNotificationDeliveries),
	}
}

// Start launches the workers. Jobs run with a context derived from ctx, which
// Stop cancels.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		p.cancel = cancel
		p.workers.Add(p.concurrency)
		for range p.concurrency {
			go p.work(bg)
		}
		logctx.FromOr(ctx, p.log).Info("delivery_pool_started",
			observability.F("workers", p.concurrency),
			observability.F("queue_size", cap(p.queue)),
		)
	})
}

func (p *Pool) Enqueue(ctx context.Context, job domdelivery.Job) error {
	logger := logctx.FromOr(ctx, p.log).With(
		observability.F("delivery_id", job.ID),
		observability.F("subscriber_url", job.Endpoint),
	)
	if p.closed.Load() {
		p.drop()
		logger.Warn("delivery_dropped_pool_closed")
		return ErrPoolClosed
	}

	p.pending.Add(1)
	select {
	case p.queue <- job:
		p.enqueued.Add(1)
		logger.Debug("delivery_enqueued")
		return nil
	default:
		p.pending.Add(-1)
		p.drop()
		logger.Warn("delivery_dropped_queue_full",
			observability.F("queue_size", cap(p.queue)),
		)
		return ErrQueueFull
	}
}

// Drain blocks until every accepted job has finished or ctx is done.
// It reports whether the pool went idle.
func (p *Pool) Drain(ctx context.Context) bool {
	t := time.NewTicker(drainPollInterval)
	defer t.Stop()
	for {
		if p.pending.Load() <= 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}

// Stop rejects new jobs, cancels in-flight ones and waits for the workers to exit
// or ctx to end. Jobs still queued are counted as dropped.
func (p *Pool) Stop(ctx context.Context) {
	p.stopOnce.Do(func() {
		p.closed.Store(true)
		if p.cancel != nil {
			p.cancel()
		}

		done := make(chan struct{})
		go func() {
			p.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logctx.FromOr(ctx, p.log).Warn("delivery_pool_stop_timeout", observability.F("error", ctx.Err()))
		}

		var discarded int
		for empty := false; !empty; {
			select {
			case <-p.queue:
				p.pending.Add(-1)
				p.drop()
				discarded++
			default:
				empty = true
			}
		}

		stats := p.Stats()
		logctx.FromOr(ctx, p.log).Info("delivery_pool_stopped",
			observability.F("enqueued", stats.Enqueued),
			observability.F("processed", stats.Processed),
			observability.F("dropped", stats.Dropped),
			observability.F("discarded", discarded),
		)
	})
}

func (p *Pool) Stats() Stats {
	return Stats{
		Enqueued:  p.enqueued.Load(),
		Processed: p.processed.Load(),
		Dropped:   p.dropped.Load(),
		Pending:   p.pending.Load(),
	}
}

func (p *Pool) work(ctx context.Context) {
	defer p.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			p.run(ctx, job)
		}
	}
}

func (p *Pool) run(ctx context.Context, job domdelivery.Job) {
	logger := p.log.With(
		observability.F("delivery_id", job.ID),
		observability.F("subscriber_url", job.Endpoint),
	)
	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger.Error("delivery_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
		p.deliveries.Add(1, observability.L("outcome", outcome))
		p.processed.Add(1)
		p.pending.Add(-1)
	}()

	if err := p.handler(ctx, job); err != nil {
		outcome = "failure"
		logger.Warn("delivery_failed", observability.Err(err))
	}
}

func (p *Pool) drop() {
	p.dropped.Add(1)
	p.deliveries.Add(1, observability.L("outcome", "dropped"))
}
