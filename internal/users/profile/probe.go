// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/users/auth"
)

// SessionChecker reports whether a session is still live.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID string) (bool, error)
}

// Probe decides admin access per session.
//
// The first caller for a session starts a lookup bounded by the probe timeout;
// concurrent callers for the same session share it. A definite answer is
// memoized until the session changes or the memo expires. Lookup failures and
// timeouts answer [sec.AccessUnauthorized] and are not memoized. A caller
// whose context ends before the lookup finishes gets [sec.AccessPending].
type Probe struct {
	profiles Repository
	sessions SessionChecker
	logger   *slog.Logger
	timeout  time.Duration
	memoTTL  time.Duration
	now      func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	memo       map[string]memoEntry
	generation uint64
}

type memoEntry struct {
	state     sec.AccessState
	expiresAt time.Time
}

// ProbeOption configures a [Probe].
type ProbeOption func(*Probe)

// WithTimeout bounds each profile lookup.
func WithTimeout(timeout time.Duration) ProbeOption {
	return func(probe *Probe) {
		if timeout > 0 {
			probe.timeout = timeout
		}
	}
}

// WithSessionChecker makes every lookup confirm the session is still live.
func WithSessionChecker(checker SessionChecker) ProbeOption {
	return func(probe *Probe) { probe.sessions = checker }
}

// WithMemoTTL sets how long a decision is reused for the same session.
func WithMemoTTL(ttl time.Duration) ProbeOption {
	return func(probe *Probe) {
		if ttl > 0 {
			probe.memoTTL = ttl
		}
	}
}

// WithClock replaces the probe's time source.
func WithClock(now func() time.Time) ProbeOption {
	return func(probe *Probe) { probe.now = now }
}

// NewProbe creates a probe over profiles.
func NewProbe(profiles Repository, logger *slog.Logger, opts ...ProbeOption) *Probe {
	probe := &Probe{
		profiles: profiles,
		logger:   logger,
		timeout:  constants.DefaultAdminCheckTimeout,
		memoTTL:  auth.AccessTokenTTL,
		now:      time.Now,
		memo:     make(map[string]memoEntry),
	}
	for _, opt := range opts {
		opt(probe)
	}
	return probe
}

// Authorize implements [middleware.AdminAuthorizer].
func (probe *Probe) Authorize(ctx context.Context, claims *sec.AuthClaims) sec.AccessState {
	if claims == nil || claims.SessionID == "" || claims.UserID == "" {
		return sec.AccessUnauthorized
	}

	if state, ok := probe.memoized(claims.SessionID); ok {
		return state
	}

	result := probe.group.DoChan(claims.SessionID, func() (any, error) {
		return probe.lookup(*claims), nil
	})

	select {
	case outcome := <-result:
		return outcome.Val.(sec.AccessState)
	case <-ctx.Done():
		return sec.AccessPending
	}
}

// Forget drops the decision for sessionID.
func (probe *Probe) Forget(sessionID string) {
	probe.mu.Lock()
	defer probe.mu.Unlock()
	delete(probe.memo, sessionID)
	probe.generation++
}

// OnSessionChange implements [auth.SessionObserver].
//
// Sign-in and refresh start a lookup for the new session in the background;
// refresh and sign-out drop the decision of the session that went away.
func (probe *Probe) OnSessionChange(_ context.Context, event auth.SessionEvent) {
	switch event.Type {
	case auth.EventSignedOut:
		probe.Forget(event.SessionID)

	case auth.EventSignedIn, auth.EventRefreshed:
		if event.PreviousSessionID != "" {
			probe.Forget(event.PreviousSessionID)
		}
		claims := &sec.AuthClaims{UserID: event.UserID, Email: event.Email, SessionID: event.SessionID}
		go probe.Authorize(context.Background(), claims)
	}
}

func (probe *Probe) memoized(sessionID string) (sec.AccessState, bool) {
	probe.mu.Lock()
	defer probe.mu.Unlock()

	entry, ok := probe.memo[sessionID]
	if !ok {
		return "", false
	}
	if !probe.now().Before(entry.expiresAt) {
		delete(probe.memo, sessionID)
		return "", false
	}
	return entry.state, true
}

// lookup runs on a context detached from every caller, bounded by the probe timeout.
func (probe *Probe) lookup(claims sec.AuthClaims) sec.AccessState {
	probe.mu.Lock()
	generation := probe.generation
	probe.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), probe.timeout)
	defer cancel()

	state, err := probe.resolve(ctx, claims)
	if err != nil {
		event := "authorization_probe_failed"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			event = "authorization_probe_timeout"
		}
		probe.logger.Warn(event,
			slog.String("session_id", claims.SessionID),
			slog.String("user_id", claims.UserID),
			slog.Any("error", err),
		)
		return sec.AccessUnauthorized
	}

	probe.mu.Lock()
	defer probe.mu.Unlock()
	if probe.generation == generation {
		probe.prune()
		probe.memo[claims.SessionID] = memoEntry{state: state, expiresAt: probe.now().Add(probe.memoTTL)}
	}
	return state
}

func (probe *Probe) resolve(ctx context.Context, claims sec.AuthClaims) (sec.AccessState, error) {
	if probe.sessions != nil {
		active, err := probe.sessions.SessionActive(ctx, claims.SessionID)
		if err != nil {
			return "", err
		}
		if !active {
			return sec.AccessUnauthorized, nil
		}
	}

	found, err := probe.profiles.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if found == nil {
		found, err = probe.profiles.CreateDefault(ctx, claims.UserID, claims.Email)
		if err != nil {
			return "", err
		}
		probe.logger.Info("profile_created",
			slog.String("user_id", claims.UserID),
			slog.String("role", string(found.Role)),
		)
	}

	// A slow backend that answers after the deadline is still a timeout.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if found.IsAdmin() {
		return sec.AccessAuthorized, nil
	}
	return sec.AccessUnauthorized, nil
}

// prune drops expired decisions. Callers hold probe.mu.
func (probe *Probe) prune() {
	now := probe.now()
	for sessionID, entry := range probe.memo {
		if !now.Before(entry.expiresAt) {
			delete(probe.memo, sessionID)
		}
	}
}
