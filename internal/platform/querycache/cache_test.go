// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package querycache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taibuivan/scriptorium/internal/platform/querycache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type payload struct {
	Title string `json:"title"`
}

func newCache(t *testing.T) (*querycache.Cache, *querycache.MemoryStore, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := querycache.NewMemoryStore(querycache.WithClock(clk.Now))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := querycache.New(store, logger, querycache.WithRetryDelay(func(int) time.Duration { return time.Millisecond }))
	return cache, store, clk
}

func booksQuery() querycache.Query {
	return querycache.Query{
		Key:       querycache.NewKey("books", map[string]any{"featured": true}),
		StaleTime: 5 * time.Minute,
		Enabled:   true,
	}
}

/*
TestFetch_FreshWithinStaleTime verifies that a second read inside the window makes no backend call.
*/
func TestFetch_FreshWithinStaleTime(t *testing.T) {
	cache, _, clk := newCache(t)
	var calls atomic.Int32
	fetch := func(context.Context) (payload, error) {
		calls.Add(1)
		return payload{Title: "Confissões"}, nil
	}

	first, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, querycache.StatusSuccess, first.Status)

	clk.Advance(4 * time.Minute)
	second, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "Confissões", second.Data.Title)
	assert.Equal(t, int32(1), calls.Load())

	clk.Advance(2 * time.Minute)
	third, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, int32(2), calls.Load())
}

/*
TestFetch_Disabled verifies that a disabled query never reaches the backend.
*/
func TestFetch_Disabled(t *testing.T) {
	cache, store, _ := newCache(t)
	query := booksQuery()
	query.Enabled = false

	result, err := querycache.Fetch(context.Background(), cache, query, func(context.Context) (payload, error) {
		t.Fatal("fetch must not run for a disabled query")
		return payload{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, querycache.StatusIdle, result.Status)
	assert.Zero(t, store.Len())
}

/*
TestFetch_Coalesces verifies that concurrent misses for one key share a single backend call.
*/
func TestFetch_Coalesces(t *testing.T) {
	cache, _, _ := newCache(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (payload, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return payload{Title: "Shared"}, nil
	}

	const callers = 8
	results := make(chan querycache.Result[payload], callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
		assert.NoError(t, err)
		results <- result
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
			assert.NoError(t, err)
			results <- result
		}()
	}

	// Joiners either share the running flight or, once it lands, hit the store.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), calls.Load())
	for result := range results {
		assert.Equal(t, "Shared", result.Data.Title)
	}
}

/*
TestFetch_AbandonedCallerDoesNotCancelFetch verifies that a caller leaving early
stops waiting while the shared fetch still completes and populates the store.
*/
func TestFetch_AbandonedCallerDoesNotCancelFetch(t *testing.T) {
	cache, _, _ := newCache(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	fetch := func(ctx context.Context) (payload, error) {
		calls.Add(1)
		close(started)
		<-release
		fetchErr <- ctx.Err()
		return payload{Title: "Late"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := querycache.Fetch(ctx, cache, booksQuery(), fetch)
		done <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.NoError(t, <-fetchErr)

	require.Eventually(t, func() bool {
		result, err := querycache.Fetch(context.Background(), cache, booksQuery(), func(context.Context) (payload, error) {
			return payload{}, errors.New("must be served from the store")
		})
		return err == nil && result.Cached && result.Data.Title == "Late"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

/*
TestFetch_FailuresAreNotStored verifies that an error reaches the caller and the next read retries.
*/
func TestFetch_FailuresAreNotStored(t *testing.T) {
	cache, store, _ := newCache(t)
	var calls atomic.Int32
	fetch := func(context.Context) (payload, error) {
		calls.Add(1)
		return payload{}, errors.New("connection refused")
	}

	_, err := querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
	require.EqualError(t, err, "connection refused")

	_, err = querycache.Fetch(context.Background(), cache, booksQuery(), fetch)
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, store.Len())
}

/*
TestFetch_Retry verifies bounded retries before success and before giving up.
*/
func TestFetch_Retry(t *testing.T) {
	t.Run("succeeds_on_third_attempt", func(t *testing.T) {
		cache, _, _ := newCache(t)
		var calls atomic.Int32
		query := booksQuery()
		query.Retry = 3

		result, err := querycache.Fetch(context.Background(), cache, query, func(context.Context) (payload, error) {
			if calls.Add(1) < 3 {
				return payload{}, errors.New("timeout")
			}
			return payload{Title: "ok"}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result.Data.Title)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives_up_after_retries", func(t *testing.T) {
		cache, _, _ := newCache(t)
		var calls atomic.Int32
		query := booksQuery()
		query.Retry = 3

		_, err := querycache.Fetch(context.Background(), cache, query, func(context.Context) (payload, error) {
			calls.Add(1)
			return payload{}, errors.New("down")
		})

		require.Error(t, err)
		assert.Equal(t, int32(4), calls.Load())
	})
}

/*
TestInvalidate verifies that invalidated operations refetch and unrelated ones stay cached.
*/
func TestInvalidate(t *testing.T) {
	cache, _, _ := newCache(t)
	var bookCalls, authorCalls atomic.Int32

	books := func(context.Context) (payload, error) { bookCalls.Add(1); return payload{Title: "b"}, nil }
	authors := func(context.Context) (payload, error) { authorCalls.Add(1); return payload{Title: "a"}, nil }
	authorsQuery := querycache.Query{Key: querycache.NewKey("authors"), StaleTime: time.Minute, Enabled: true}

	for i := 0; i < 2; i++ {
		_, err := querycache.Fetch(context.Background(), cache, booksQuery(), books)
		require.NoError(t, err)
		_, err = querycache.Fetch(context.Background(), cache, authorsQuery, authors)
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(context.Background(), "books"))

	_, err := querycache.Fetch(context.Background(), cache, booksQuery(), books)
	require.NoError(t, err)
	_, err = querycache.Fetch(context.Background(), cache, authorsQuery, authors)
	require.NoError(t, err)

	assert.Equal(t, int32(2), bookCalls.Load())
	assert.Equal(t, int32(1), authorCalls.Load())
}

/*
TestInvalidate_DuringFlight verifies that a fetch started before a write does not store its result.
*/
func TestInvalidate_DuringFlight(t *testing.T) {
	cache, store, _ := newCache(t)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := querycache.Fetch(context.Background(), cache, booksQuery(), func(context.Context) (payload, error) {
			close(started)
			<-release
			return payload{Title: "stale"}, nil
		})
		assert.NoError(t, err)
	}()

	<-started
	require.NoError(t, cache.Invalidate(context.Background(), "books"))
	close(release)
	<-done

	assert.Zero(t, store.Len())
}

/*
TestInvalidate_SharedStore verifies that an invalidation on one cache drops
the results another cache over the same store has saved.
*/
func TestInvalidate_SharedStore(t *testing.T) {
	_, store, _ := newCache(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := querycache.New(store, logger)
	reader := querycache.New(store, logger)
	var calls atomic.Int32

	fetch := func(context.Context) (payload, error) { calls.Add(1); return payload{Title: "b"}, nil }

	_, err := querycache.Fetch(context.Background(), reader, booksQuery(), fetch)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, writer.Invalidate(context.Background(), "books"))
	assert.Zero(t, store.Len())

	result, err := querycache.Fetch(context.Background(), reader, booksQuery(), fetch)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, int32(2), calls.Load())
}

/*
TestNewKey verifies that keys compare by operation and encoded parameters.
*/
func TestNewKey(t *testing.T) {
	type filter struct {
		Featured *bool `json:"featured,omitempty"`
		Limit    int   `json:"limit,omitempty"`
	}
	yes := true

	assert.Equal(t, "authors:[]", querycache.NewKey("authors").String())
	assert.Equal(t, `author:["agostinho-de-hipona"]`, querycache.NewKey("author", "agostinho-de-hipona").String())
	assert.Equal(t,
		querycache.NewKey("books", filter{Featured: &yes, Limit: 3}).String(),
		querycache.NewKey("books", filter{Featured: &yes, Limit: 3}).String(),
	)
	assert.NotEqual(t,
		querycache.NewKey("books", filter{Limit: 3}).String(),
		querycache.NewKey("books", filter{Limit: 4}).String(),
	)
	assert.Equal(t, "books", querycache.NewKey("books").Operation())
}

/*
TestMemoryStore_Eviction verifies the entry bound.
*/
func TestMemoryStore_Eviction(t *testing.T) {
	store := querycache.NewMemoryStore(querycache.WithMaxEntries(2))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 2*time.Minute))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 3*time.Minute))

	assert.Equal(t, 2, store.Len())
	_, found, _ := store.Get(ctx, "a")
	assert.False(t, found)
	value, found, _ := store.Get(ctx, "c")
	assert.True(t, found)
	assert.Equal(t, []byte("3"), value)
}
