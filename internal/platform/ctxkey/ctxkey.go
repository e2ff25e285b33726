// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed context keys the middleware chain sets
// and the handlers read: the request id, the per-request logger and the
// verified token claims.
package ctxkey

// key is unexported; values stored under it cannot collide with string keys.
type key string

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyUser carries the verified [sec.AuthClaims] of the bearer token.
	KeyUser key = "auth_claims"

	// KeyLogger carries the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
