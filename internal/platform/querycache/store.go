// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package querycache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store persists encoded query results with a time-to-live.
//
// A Get after the TTL has elapsed must report a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// # Memory Store

const defaultMaxEntries = 10_000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local [Store]. It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	maxEntries int
}

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock, for tests that move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(store *MemoryStore) { store.now = now }
}

// WithMaxEntries bounds the number of live entries.
func WithMaxEntries(n int) MemoryOption {
	return func(store *MemoryStore) {
		if n > 0 {
			store.maxEntries = n
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Get implements [Store].
func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.entries[key]
	if !found {
		return nil, false, nil
	}
	if !store.now().Before(entry.expiresAt) {
		delete(store.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	if _, exists := store.entries[key]; !exists && len(store.entries) >= store.maxEntries {
		store.evict(now)
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	store.entries[key] = memoryEntry{value: copied, expiresAt: now.Add(ttl)}
	return nil
}

// DeletePrefix implements [Store].
func (store *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for key := range store.entries {
		if strings.HasPrefix(key, prefix) {
			delete(store.entries, key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (store *MemoryStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.entries)
}

// evict drops expired entries, then the entry closest to expiry if still full.
// Callers hold mu.
func (store *MemoryStore) evict(now time.Time) {
	for key, entry := range store.entries {
		if !now.Before(entry.expiresAt) {
			delete(store.entries, key)
		}
	}
	if len(store.entries) < store.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, entry := range store.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(store.entries, oldestKey)
}
