package subscriber

import "context"

// Registry holds subscribers keyed by (category, url).
//
// Implementations must make Add, Remove and List linearizable with respect to each
// other: Notify reads the registry while unrelated requests mutate it.
type Registry interface {
	// Add inserts s under category, replacing any entry with the same URL.
	Add(ctx context.Context, category string, s Subscriber) (Subscriber, error)
	// Remove deletes the entry for url and returns it, or ErrNotFound.
	Remove(ctx context.Context, category, url string) (Subscriber, error)
	// List returns a point-in-time copy of the subscribers of category.
	List(ctx context.Context, category string) ([]Subscriber, error)
}
