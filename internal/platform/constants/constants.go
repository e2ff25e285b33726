// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, cache freshness windows and
cross-cutting keys that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Query Freshness: How long a cached catalog read is served before refetch.
  - Security: JWT issuers, API key header and cookie configuration.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "scriptorium-api"
	AppVersion = "0.3.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Query Freshness

const (
	// AuthorsStaleTime covers author lists and single-author reads.
	AuthorsStaleTime = 5 * time.Minute

	// BooksStaleTime covers book lists, featured books and single-book reads.
	BooksStaleTime = 5 * time.Minute

	// CategoriesStaleTime covers category labels and counts.
	CategoriesStaleTime = 10 * time.Minute

	// SearchStaleTime covers book search and full-text search.
	SearchStaleTime = 2 * time.Minute

	// ConnectionStaleTime covers the backend connectivity probe.
	ConnectionStaleTime = 30 * time.Second

	// ConnectionProbeRetries is the number of retries after the first failed probe.
	ConnectionProbeRetries = 3

	// QueryFlightTimeout bounds a coalesced backend fetch that outlives its callers.
	QueryFlightTimeout = 15 * time.Second

	// MinSearchLength is the query length a search must exceed before it runs.
	MinSearchLength = 2

	// DefaultFeaturedLimit is the number of featured books returned when no limit is given.
	DefaultFeaturedLimit = 3
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "scriptorium-divinum"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"

	// DefaultAdminCheckTimeout bounds the profile lookup behind the admin gate.
	DefaultAdminCheckTimeout = 5 * time.Second

	// AdminPendingRetryAfter is the Retry-After hint sent while a permission check is running.
	AdminPendingRetryAfter = 1
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAPIKey        = "apikey"
	HeaderRetryAfter    = "Retry-After"
	QueryParamAPIKey    = "apikey"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession    = "auth:session:"
	RedisPrefixQueryCache = "catalog:query:"
)
