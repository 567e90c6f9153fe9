package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	domain "github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
)

const DefaultKeyPrefix = "notify:subscribers:"

// removeScript reads and deletes a hash field in one step.
var removeScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if v then
  redis.call('HDEL', KEYS[1], ARGV[1])
end
return v
`)

// SubscriberRegistry stores each category as a Redis hash of url -> JSON subscriber.
// Single commands and the removal script run atomically on the server.
type SubscriberRegistry struct {
	db     redis.UniversalClient
	prefix string
}

func NewSubscriberRegistry(db redis.UniversalClient, prefix string) *SubscriberRegistry {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SubscriberRegistry{db: db, prefix: prefix}
}

func (r *SubscriberRegistry) key(category string) string {
	return r.prefix + category
}

func (r *SubscriberRegistry) Add(ctx context.Context, category string, s domain.Subscriber) (domain.Subscriber, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("redisstore: encode subscriber: %w", err)
	}
	if err := r.db.HSet(ctx, r.key(category), s.URL, raw).Err(); err != nil {
		return domain.Subscriber{}, fmt.Errorf("redisstore: add: %w", err)
	}
	return s, nil
}

func (r *SubscriberRegistry) Remove(ctx context.Context, category, url string) (domain.Subscriber, error) {
	raw, err := removeScript.Run(ctx, r.db, []string{r.key(category)}, url).Text()
	if errors.Is(err, redis.Nil) {
		return domain.Subscriber{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("redisstore: remove: %w", err)
	}

	var s domain.Subscriber
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.Subscriber{}, fmt.Errorf("redisstore: decode subscriber: %w", err)
	}
	return s, nil
}

// List returns the category's subscribers sorted by URL; hashes carry no insertion order.
func (r *SubscriberRegistry) List(ctx context.Context, category string) ([]domain.Subscriber, error) {
	entries, err := r.db.HGetAll(ctx, r.key(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list: %w", err)
	}

	out := make([]domain.Subscriber, 0, len(entries))
	for url, raw := range entries {
		var s domain.Subscriber
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("redisstore: decode subscriber %q: %w", url, err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}
