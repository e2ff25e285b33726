// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package querycache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/scriptorium/internal/platform/constants"
)

// scanBatch is the COUNT hint used while scanning keys for invalidation.
const scanBatch = 200

// RedisStore is a [Store] shared by every API instance through Redis.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a Redis-backed store under the query cache namespace.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, prefix: constants.RedisPrefixQueryCache}
}

// Get implements [Store].
func (store *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := store.client.Get(ctx, store.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querycache: redis get failed: %w", err)
	}
	return value, true, nil
}

// Set implements [Store].
func (store *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := store.client.Set(ctx, store.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("querycache: redis set failed: %w", err)
	}
	return nil
}

// DeletePrefix implements [Store] with incremental SCAN + DEL.
func (store *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := store.prefix + escapeGlob(prefix) + "*"

	var cursor uint64
	for {
		keys, next, err := store.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("querycache: redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := store.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("querycache: redis delete failed: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob escapes the characters Redis MATCH treats as pattern syntax.
func escapeGlob(value string) string {
	var builder strings.Builder
	for _, r := range value {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			builder.WriteRune('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
