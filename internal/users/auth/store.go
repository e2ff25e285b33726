// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Account Data Access

// AccountRepository defines the data access contract for credential records.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - *Account: Hydrated entity
		  - error: dberr.ErrNotFound or database retrieval failures
	*/
	FindByID(ctx context.Context, id string) (*Account, error)

	/*
		FindByEmail returns the account with the given email, compared case-insensitively.

		Parameters:
		  - ctx: context.Context
		  - email: string

		Returns:
		  - *Account: Hydrated entity
		  - error: dberr.ErrNotFound or database retrieval failures
	*/
	FindByEmail(ctx context.Context, email string) (*Account, error)

	/*
		Upsert creates the account or replaces the password of the account
		already registered under the same email. The stored ID is written back.

		Parameters:
		  - ctx: context.Context
		  - account: *Account

		Returns:
		  - error: Persistence failures
	*/
	Upsert(ctx context.Context, account *Account) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new session until its ExpiresAt.

		Parameters:
		  - ctx: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(ctx context.Context, session *Session) error

	/*
		FindByTokenHash returns the live session matching the given token hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr NOT_FOUND when absent or expired
	*/
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	/*
		FindByID returns the live session with the given ID.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr NOT_FOUND when absent or expired
	*/
	FindByID(ctx context.Context, sessionID string) (*Session, error)

	// Revoke removes the session. Revoking a missing session is not an error.
	Revoke(ctx context.Context, session *Session) error
}

// SessionObserver is notified of committed session changes.
//
// Observers are called synchronously after the change and must not block.
type SessionObserver interface {
	OnSessionChange(ctx context.Context, event SessionEvent)
}

// SessionObserverFunc adapts a function to [SessionObserver].
type SessionObserverFunc func(ctx context.Context, event SessionEvent)

// OnSessionChange implements [SessionObserver].
func (fn SessionObserverFunc) OnSessionChange(ctx context.Context, event SessionEvent) {
	fn(ctx, event)
}
