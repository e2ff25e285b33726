// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements password sign-in and refresh-session management.

It defines the identity entities (Account, Session) and the session lifecycle:
sign in, refresh with rotation, sign out and current-session lookup. Every
change is published to registered [SessionObserver]s, which is how the admin
authorization probe learns that a session appeared or went away.

# Architecture

Accounts live in PostgreSQL (identity.account). Sessions are volatile and live
in Redis keyed by the hash of their refresh token.
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account is a credential record. Only admins sign in; readers are anonymous.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	TokenHash string    `json:"tokenHash"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its expiry at now.
func (session *Session) Expired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}

// # Session Events

// EventType names a session lifecycle transition.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventRefreshed EventType = "refreshed"
	EventSignedOut EventType = "signed_out"
)

// SessionEvent is delivered to observers after a session change is committed.
type SessionEvent struct {
	Type      EventType
	SessionID string
	UserID    string
	Email     string

	// PreviousSessionID is set on refresh, naming the rotated-out session.
	PreviousSessionID string
}

// # Field Identifiers

const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldAccessToken = "accessToken"
	FieldTokenType   = "tokenType"
	FieldExpiresIn   = "expiresIn"
	FieldUser        = "user"
	FieldSession     = "session"
	FieldState       = "state"
	FieldIsAdmin     = "isAdmin"
)
