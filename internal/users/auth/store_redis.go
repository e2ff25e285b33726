// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/constants"
)

// RedisSessionRepository implements [SessionRepository] using Redis.
//
// A session is stored as JSON under its token hash, with a secondary key
// mapping the session ID to that hash. Both keys expire with the session.
type RedisSessionRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(client redis.Cmdable) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, now: time.Now}
}

func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + "token:" + tokenHash
}

func sessionIDKey(sessionID string) string {
	return constants.RedisPrefixSession + "id:" + sessionID
}

/*
Create stores the session and its ID index with the remaining lifetime as TTL.

Returns:
  - error: Storage failures or an already-expired session
*/
func (repository *RedisSessionRepository) Create(ctx context.Context, session *Session) error {
	ttl := session.ExpiresAt.Sub(repository.now())
	if ttl <= 0 {
		return fmt.Errorf("redis_session_create_failed: session %s already expired", session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	_, err = repository.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.TokenHash), payload, ttl)
		pipe.Set(ctx, sessionIDKey(session.ID), session.TokenHash, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_create_failed: %w", err)
	}
	return nil
}

/*
FindByTokenHash loads the session stored under tokenHash.

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound when absent or expired, or connectivity errors
*/
func (repository *RedisSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	payload, err := repository.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return &session, nil
}

// FindByID resolves the ID index, then loads the session.
func (repository *RedisSessionRepository) FindByID(ctx context.Context, sessionID string) (*Session, error) {
	tokenHash, err := repository.client.Get(ctx, sessionIDKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("redis_session_index_get_failed: %w", err)
	}
	return repository.FindByTokenHash(ctx, tokenHash)
}

// Revoke deletes both keys of the session.
func (repository *RedisSessionRepository) Revoke(ctx context.Context, session *Session) error {
	if err := repository.client.Del(ctx, sessionKey(session.TokenHash), sessionIDKey(session.ID)).Err(); err != nil {
		return fmt.Errorf("redis_session_revoke_failed: %w", err)
	}
	return nil
}
