package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	domnotif "github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	domproduct "github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	productService = "product-service"
	spanPrefix     = "UC."

	useCaseCreate  = "product.create"
	useCaseGet     = "product.get"
	useCaseList    = "product.list"
	useCaseDelete  = "product.delete"
	useCasePublish = "product.publish"
)

// Notifier announces product events to subscribers of the product's category.
type Notifier interface {
	Notify(ctx context.Context, category string, status domnotif.Status, p domproduct.Product)
}

type CreateInput struct {
	Title    string
	Type     string
	Price    int64
	Quantity int
}

// Service is the product catalog. Mutations notify subscribers after they succeed.
type Service struct {
	repo     domproduct.Repository
	notifier Notifier

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(repo domproduct.Repository, notifier Notifier, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:         repo,
		notifier:     notifier,
		log:          tel.Logger().With(observability.F("service", productService)),
		tracer:       tel.Tracer(),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domproduct.Product, error) {
	var created *domproduct.Product
	err := s.run(ctx, useCaseCreate, "CreateProduct", func(ctx context.Context) error {
		p, err := domproduct.New(in.Title, in.Type, in.Price, in.Quantity)
		if err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, p); err != nil {
			return fmt.Errorf("product: insert: %w", err)
		}
		created = p
		s.announce(ctx, domnotif.StatusCreated, p)
		return nil
	})
	return created, err
}

func (s *Service) Get(ctx context.Context, id int64) (*domproduct.Product, error) {
	var found *domproduct.Product
	err := s.run(ctx, useCaseGet, "GetProduct", func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		found = p
		return nil
	}, attribute.Int64("product.id", id))
	return found, err
}

func (s *Service) List(ctx context.Context) ([]*domproduct.Product, error) {
	var all []*domproduct.Product
	err := s.run(ctx, useCaseList, "ListProducts", func(ctx context.Context) error {
		ps, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		all = ps
		return nil
	})
	return all, err
}

func (s *Service) Delete(ctx context.Context, id int64) (*domproduct.Product, error) {
	var deleted *domproduct.Product
	err := s.run(ctx, useCaseDelete, "DeleteProduct", func(ctx context.Context) error {
		p, err := s.repo.Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = p
		s.announce(ctx, domnotif.StatusDeleted, p)
		return nil
	}, attribute.Int64("product.id", id))
	return deleted, err
}

// Publish promotes an existing product to its category's subscribers.
func (s *Service) Publish(ctx context.Context, id int64) (*domproduct.Product, error) {
	var published *domproduct.Product
	err := s.run(ctx, useCasePublish, "PublishProduct", func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		published = p
		s.announce(ctx, domnotif.StatusPromoted, p)
		return nil
	}, attribute.Int64("product.id", id))
	return published, err
}

func (s *Service) announce(ctx context.Context, status domnotif.Status, p *domproduct.Product) {
	if s.notifier == nil || p == nil {
		return
	}
	s.notifier.Notify(ctx, p.Type, status, *p)
}

func (s *Service) run(ctx context.Context, useCase, spanName string, fn func(context.Context) error, attrs ...attribute.KeyValue) (err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))
	ctx, span := s.tracer.Start(ctx, spanPrefix+spanName, append(attrs, attribute.String("use_case", useCase))...)
	start := time.Now()

	defer func() {
		outcome, statusText := classify(err)
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		latency := time.Since(start).Seconds()
		s.reqCounter.Add(1, observability.L("use_case", useCase), observability.L("outcome", outcome))
		s.durHistogram.Observe(latency, observability.L("use_case", useCase))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.Err(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	return fn(ctx)
}

func classify(err error) (outcome, status string) {
	switch {
	case err == nil:
		return "success", "OK"
	case errors.Is(err, domproduct.ErrNotFound):
		return "not_found", "NOT_FOUND"
	case IsValidation(err):
		return "invalid", "INVALID_ARGUMENT"
	default:
		return "error", "INTERNAL"
	}
}

// IsValidation reports whether err was caused by invalid product input.
func IsValidation(err error) bool {
	return errors.Is(err, domproduct.ErrInvalidTitle) ||
		errors.Is(err, domproduct.ErrInvalidType) ||
		errors.Is(err, domproduct.ErrInvalidPrice) ||
		errors.Is(err, domproduct.ErrInvalidQuantity)
}
