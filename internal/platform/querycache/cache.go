// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package querycache is a keyed, time-bounded cache for backend reads.

Every read is described by a [Query]: a [Key], a freshness window, an
enabled precondition and an optional retry count. [Fetch] resolves it:

  - Disabled queries return [StatusIdle] without touching the backend.
  - A result fetched within the freshness window is served from the [Store].
  - Concurrent misses for the same key share one backend call (singleflight).
  - A caller whose context ends stops waiting; the shared fetch carries on
    under its own deadline and still populates the store for later callers.
  - Failures are never stored.

Writes call [Cache.Invalidate] with the operations they affect. Fetches on
the same Cache that started before an invalidation do not write their
now-stale result. The generation behind that guard is process-local: with a
shared Redis store, another process's in-flight fetch may still save a stale
result, which lives until its freshness window ends.
*/
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/scriptorium/internal/platform/constants"
)

// Status describes how a query resolved.
type Status string

const (
	// StatusIdle means the query was disabled by its precondition and did not run.
	StatusIdle Status = "idle"

	// StatusSuccess means Data holds a backend result, fresh or cached.
	StatusSuccess Status = "success"
)

// Query describes one cacheable read.
type Query struct {
	Key       Key
	StaleTime time.Duration
	Enabled   bool

	// Retry is the number of additional attempts after a failed fetch.
	Retry int
}

// Result is the outcome of a successful or idle [Fetch].
type Result[T any] struct {
	Status Status
	Data   T

	// Cached is true when Data came from the store without a backend call.
	Cached bool
}

// Cache coordinates a [Store] with request coalescing.
type Cache struct {
	store         Store
	logger        *slog.Logger
	group         singleflight.Group
	generation    atomic.Uint64
	flightTimeout time.Duration
	retryDelay    func(attempt int) time.Duration
}

// Option configures a [Cache].
type Option func(*Cache)

// WithFlightTimeout bounds a shared fetch independently of its callers.
func WithFlightTimeout(timeout time.Duration) Option {
	return func(cache *Cache) {
		if timeout > 0 {
			cache.flightTimeout = timeout
		}
	}
}

// WithRetryDelay replaces the backoff between retries.
func WithRetryDelay(delay func(attempt int) time.Duration) Option {
	return func(cache *Cache) {
		if delay != nil {
			cache.retryDelay = delay
		}
	}
}

// New creates a cache over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	cache := &Cache{
		store:         store,
		logger:        logger,
		flightTimeout: constants.QueryFlightTimeout,
		retryDelay:    exponentialDelay,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// exponentialDelay doubles from one second up to thirty seconds.
func exponentialDelay(attempt int) time.Duration {
	delay := time.Second << attempt
	if delay <= 0 || delay > 30*time.Second {
		return 30 * time.Second
	}
	return delay
}

// Fetch resolves query, calling fetch only on a miss.
//
// The returned data is decoded from the stored encoding, so every caller
// receives its own copy. fetch receives a context detached from ctx's
// cancellation but bounded by the flight timeout.
func Fetch[T any](ctx context.Context, cache *Cache, query Query, fetch func(context.Context) (T, error)) (Result[T], error) {
	if !query.Enabled {
		return Result[T]{Status: StatusIdle}, nil
	}

	key := query.Key.String()

	if payload, found := cache.lookup(ctx, key); found {
		var data T
		if err := json.Unmarshal(payload, &data); err == nil {
			return Result[T]{Status: StatusSuccess, Data: data, Cached: true}, nil
		}
		cache.logger.WarnContext(ctx, "query_cache_decode_failed", slog.String("key", key))
	}

	generation := cache.generation.Load()
	flightKey := strconv.FormatUint(generation, 10) + "|" + key

	flight := cache.group.DoChan(flightKey, func() (any, error) {
		return cache.run(ctx, query, key, generation, func(flightCtx context.Context) ([]byte, error) {
			data, err := fetch(flightCtx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(data)
		})
	})

	select {
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	case outcome := <-flight:
		if outcome.Err != nil {
			return Result[T]{}, outcome.Err
		}
		var data T
		if err := json.Unmarshal(outcome.Val.([]byte), &data); err != nil {
			return Result[T]{}, fmt.Errorf("querycache: decode %s: %w", key, err)
		}
		return Result[T]{Status: StatusSuccess, Data: data}, nil
	}
}

// Invalidate drops every stored result of the given operations.
func (cache *Cache) Invalidate(ctx context.Context, operations ...string) error {
	cache.generation.Add(1)

	for _, operation := range operations {
		if err := cache.store.DeletePrefix(ctx, Prefix(operation)); err != nil {
			return fmt.Errorf("querycache: invalidate %s: %w", operation, err)
		}
	}

	cache.logger.DebugContext(ctx, "query_cache_invalidated", slog.Any("operations", operations))
	return nil
}

// lookup reads the store; store failures degrade to a miss.
func (cache *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	payload, found, err := cache.store.Get(ctx, key)
	if err != nil {
		cache.logger.WarnContext(ctx, "query_cache_read_failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return payload, found
}

// run executes one shared fetch with retries and stores a successful result.
func (cache *Cache) run(ctx context.Context, query Query, key string, generation uint64, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cache.flightTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= query.Retry; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cache.retryDelay(attempt - 1))
			select {
			case <-flightCtx.Done():
				timer.Stop()
				return nil, lastErr
			case <-timer.C:
			}
		}

		payload, err := fetch(flightCtx)
		if err == nil {
			cache.save(flightCtx, key, payload, query.StaleTime, generation)
			return payload, nil
		}

		lastErr = err
		cache.logger.WarnContext(ctx, "query_fetch_failed",
			slog.String("key", key),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}

	return nil, lastErr
}

func (cache *Cache) save(ctx context.Context, key string, payload []byte, ttl time.Duration, generation uint64) {
	if ttl <= 0 || cache.generation.Load() != generation {
		return
	}
	if err := cache.store.Set(ctx, key, payload, ttl); err != nil {
		cache.logger.WarnContext(ctx, "query_cache_write_failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	// An invalidation may have landed between the check and the write.
	if cache.generation.Load() != generation {
		_ = cache.store.DeletePrefix(ctx, key)
	}
}
