package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-notify/internal/domain/subscriber"
	"github.com/Zhima-Mochi/minishop-notify/internal/infrastructure/memory"
)

func TestSubscriberRegistry_AddThenList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := memory.NewSubscriberRegistry()

	a := domain.Subscriber{URL: "http://a", Name: "A"}
	b := domain.Subscriber{URL: "http://b", Name: "B"}
	_, err := r.Add(ctx, "BOOK", a)
	require.NoError(t, err)
	stored, err := r.Add(ctx, "BOOK", b)
	require.NoError(t, err)
	assert.Equal(t, b, stored)

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{a, b}, got)

	other, err := r.List(ctx, "TOY")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSubscriberRegistry_AddOverwritesSameURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := memory.NewSubscriberRegistry()

	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://b", Name: "B"})
	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A2"})

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{
		{URL: "http://a", Name: "A2"},
		{URL: "http://b", Name: "B"},
	}, got)
}

func TestSubscriberRegistry_Remove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := memory.NewSubscriberRegistry()

	_, err := r.Remove(ctx, "BOOK", "http://a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://b", Name: "B"})

	_, err = r.Remove(ctx, "TOY", "http://a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	removed, err := r.Remove(ctx, "BOOK", "http://a")
	require.NoError(t, err)
	assert.Equal(t, domain.Subscriber{URL: "http://a", Name: "A"}, removed)

	got, _ := r.List(ctx, "BOOK")
	assert.Equal(t, []domain.Subscriber{{URL: "http://b", Name: "B"}}, got)

	_, err = r.Remove(ctx, "BOOK", "http://a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubscriberRegistry_ListIsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := memory.NewSubscriberRegistry()

	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://a", Name: "A"})
	snapshot, _ := r.List(ctx, "BOOK")

	snapshot[0].Name = "mutated"
	_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: "http://b", Name: "B"})

	assert.Len(t, snapshot, 1)
	got, _ := r.List(ctx, "BOOK")
	assert.Equal(t, "A", got[0].Name)
}

func TestSubscriberRegistry_ConcurrentMutation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := memory.NewSubscriberRegistry()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("http://s%d", i)
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: url, Name: url})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Add(ctx, "BOOK", domain.Subscriber{URL: url, Name: url})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.List(ctx, "BOOK")
		}()
	}
	wg.Wait()

	got, err := r.List(ctx, "BOOK")
	require.NoError(t, err)
	assert.Len(t, got, n)
}
