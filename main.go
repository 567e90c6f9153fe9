package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	appnotif "github.com/Zhima-Mochi/minishop-notify/internal/application/notification"
	appproduct "github.com/Zhima-Mochi/minishop-notify/internal/application/product"
	"github.com/Zhima-Mochi/minishop-notify/internal/config"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/delivery"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/webhook"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-notify/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-notify/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zaplogger.New(zaplogger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	systemLogger := logger.With(observability.F("component", "system"))

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	counters, histograms := prometrics.Instruments(prometrics.New(prometheus.DefaultRegisterer, "", ""))
	tel := infraobs.New(oteltrace.NewWithProvider(tp, cfg.ServiceName), logger, counters, histograms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, health, closeRegistry, err := newRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	deliver := appnotif.NewDeliverUseCase(webhook.NewSender(cfg.Delivery.WebhookTimeout), tel)
	pool := delivery.NewPool(
		workerpresentation.DeliveryMiddleware(logger.With(observability.F("component", "delivery_worker")))(deliver.Handle),
		delivery.Options{Workers: cfg.Delivery.Workers, QueueSize: cfg.Delivery.QueueSize},
		tel,
	)
	pool.Start(ctx)

	notifications := appnotif.NewService(registry, pool, tel)
	products := appproduct.NewService(memory.NewProductRepository(), notifications, tel)
	handler := httppresentation.NewHandler(notifications, products, health, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("registry_backend", cfg.Registry.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			systemLogger.Error("http_server_shutdown_error", observability.Err(err))
		} else {
			systemLogger.Info("http_server_stopped")
		}

		if !pool.Drain(shutdownCtx) {
			systemLogger.Warn("delivery_drain_timeout", observability.F("pending", pool.Stats().Pending))
		}
		pool.Stop(shutdownCtx)
		return nil
	})

	return g.Wait()
}

func newRegistry(ctx context.Context, cfg config.Config) (subscriber.Registry, httppresentation.HealthCheck, func(), error) {
	if cfg.Registry.Backend != config.BackendRedis {
		return memory.NewSubscriberRegistry(), nil, func() {}, nil
	}

	client, err := redisstore.Connect(ctx, redisstore.ConnectOptions{
		URL:            cfg.Redis.URL,
		RetryAttempts:  cfg.Redis.RetryAttempts,
		RetryInterval:  cfg.Redis.RetryInterval,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	var db redis.UniversalClient = client
	return redisstore.NewSubscriberRegistry(db, cfg.Redis.KeyPrefix),
		redisstore.Healthcheck(db),
		func() { _ = client.Close() },
		nil
}
