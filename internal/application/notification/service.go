package notification

import (
	"context"

	"github.com/Zhima-Mochi/minishop-notify/internal/application"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/delivery"
	domnotif "github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/observability"
)

// Service is the dispatcher seen by the transport layer.
type Service struct {
	subscribe   application.UseCase[SubscribeInput, subscriber.Subscriber]
	unsubscribe application.UseCase[UnsubscribeInput, subscriber.Subscriber]
	list        application.UseCase[string, []subscriber.Subscriber]
	notify      application.UseCase[NotifyInput, *NotifyResult]
}

func NewService(registry subscriber.Registry, queue delivery.Queue, tel observability.Observability) *Service {
	return &Service{
		subscribe:   NewSubscribeUseCase(registry, tel),
		unsubscribe: NewUnsubscribeUseCase(registry, tel),
		list:        NewListSubscribersUseCase(registry, tel),
		notify:      NewNotifyUseCase(registry, queue, tel),
	}
}

func (s *Service) Subscribe(ctx context.Context, category string, sub subscriber.Subscriber) (subscriber.Subscriber, error) {
	return s.subscribe.Execute(ctx, SubscribeInput{Category: category, Subscriber: sub})
}

// Unsubscribe returns ErrNotFound when url is not subscribed to category.
func (s *Service) Unsubscribe(ctx context.Context, category, url string) (subscriber.Subscriber, error) {
	return s.unsubscribe.Execute(ctx, UnsubscribeInput{Category: category, URL: url})
}

func (s *Service) Subscribers(ctx context.Context, category string) ([]subscriber.Subscriber, error) {
	return s.list.Execute(ctx, category)
}

// Notify fans the event out to the current subscribers of category and returns
// immediately. Failures are only logged.
func (s *Service) Notify(ctx context.Context, category string, status domnotif.Status, p product.Product) {
	_, _ = s.notify.Execute(ctx, NotifyInput{Category: category, Status: status, Product: p})
}
