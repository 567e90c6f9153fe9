package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
)

// categorySet keeps subscribers in first-subscription order.
type categorySet struct {
	order []string
	byURL map[string]domain.Subscriber
}

// SubscriberRegistry is a process-local registry guarded by a single RWMutex,
// which makes Add, Remove and List linearizable.
type SubscriberRegistry struct {
	mu         sync.RWMutex
	categories map[string]*categorySet
}

func NewSubscriberRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{
		categories: make(map[string]*categorySet),
	}
}

// Add stores s under category. A second Add for the same URL overwrites the first
// and keeps its original position.
func (r *SubscriberRegistry) Add(ctx context.Context, category string, s domain.Subscriber) (domain.Subscriber, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.categories[category]
	if !ok {
		set = &categorySet{byURL: make(map[string]domain.Subscriber)}
		r.categories[category] = set
	}
	if _, exists := set.byURL[s.URL]; !exists {
		set.order = append(set.order, s.URL)
	}
	set.byURL[s.URL] = s
	return s, nil
}

func (r *SubscriberRegistry) Remove(ctx context.Context, category, url string) (domain.Subscriber, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.categories[category]
	if !ok {
		return domain.Subscriber{}, domain.ErrNotFound
	}
	s, ok := set.byURL[url]
	if !ok {
		return domain.Subscriber{}, domain.ErrNotFound
	}

	delete(set.byURL, url)
	for i, u := range set.order {
		if u == url {
			set.order = append(set.order[:i], set.order[i+1:]...)
			break
		}
	}
	if len(set.byURL) == 0 {
		delete(r.categories, category)
	}
	return s, nil
}

func (r *SubscriberRegistry) List(ctx context.Context, category string) ([]domain.Subscriber, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.categories[category]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Subscriber, 0, len(set.order))
	for _, u := range set.order {
		out = append(out, set.byURL[u])
	}
	return out, nil
}
