// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT bound to sessionID.
	GenerateAccessToken(userID, email, sessionID string, timeToLive time.Duration) (string, error)
}

// Service implements the sign-in and session use cases.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	tokenProvider     TokenProvider
	logger            *slog.Logger
	now               func() time.Time

	mu        sync.RWMutex
	observers map[int]SessionObserver
	nextID    int
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	tokenProv TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		tokenProvider:     tokenProv,
		logger:            logger,
		now:               time.Now,
		observers:         make(map[int]SessionObserver),
	}
}

// # Session Events

// Subscribe registers observer for session changes and returns its cancel function.
func (service *Service) Subscribe(observer SessionObserver) (unsubscribe func()) {
	service.mu.Lock()
	id := service.nextID
	service.nextID++
	service.observers[id] = observer
	service.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			service.mu.Lock()
			delete(service.observers, id)
			service.mu.Unlock()
		})
	}
}

func (service *Service) publish(ctx context.Context, event SessionEvent) {
	service.mu.RLock()
	observers := make([]SessionObserver, 0, len(service.observers))
	for _, observer := range service.observers {
		observers = append(observers, observer)
	}
	service.mu.RUnlock()

	// Observers outlive the request that caused the change.
	detached := context.WithoutCancel(ctx)
	for _, observer := range observers {
		observer.OnSessionChange(detached, event)
	}

	service.logger.InfoContext(ctx, "session_"+string(event.Type),
		slog.String("session_id", event.SessionID),
		slog.String("user_id", event.UserID),
	)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Session               *Session
	Account               *Account
}

/*
Login validates credentials and opens a new session.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	account, err := service.accountRepository.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	issued, err := service.openSession(ctx, account, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.publish(ctx, SessionEvent{
		Type:      EventSignedIn,
		SessionID: issued.Session.ID,
		UserID:    account.ID,
		Email:     account.Email,
	})
	return issued, nil
}

/*
RefreshSession implements refresh-token rotation.

The presented token's session is revoked and a new session with a fresh pair
of tokens replaces it, so a refresh token is usable exactly once.

Returns:
  - *LoginSession: New session credentials
  - err: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(ctx context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	previous, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil || previous.Expired(service.now()) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	if err := service.sessionRepository.Revoke(ctx, previous); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	account, err := service.accountRepository.FindByID(ctx, previous.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}

	issued, err := service.openSession(ctx, account, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	service.publish(ctx, SessionEvent{
		Type:              EventRefreshed,
		SessionID:         issued.Session.ID,
		UserID:            account.ID,
		Email:             account.Email,
		PreviousSessionID: previous.ID,
	})
	return issued, nil
}

// LogoutInput names the session to end, by refresh token or by session ID.
type LogoutInput struct {
	RefreshToken string
	SessionID    string
}

/*
Logout revokes the session. It is idempotent: an unknown or already revoked
session is a successful logout.
*/
func (service *Service) Logout(ctx context.Context, input LogoutInput) error {
	var session *Session
	var err error

	switch {
	case input.RefreshToken != "":
		session, err = service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(input.RefreshToken))
	case input.SessionID != "":
		session, err = service.sessionRepository.FindByID(ctx, input.SessionID)
	default:
		return nil
	}
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(ctx, session); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.publish(ctx, SessionEvent{
		Type:      EventSignedOut,
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
	})
	return nil
}

// # Session Lookup

// CurrentSession returns the live session behind claims, or nil when there is none.
func (service *Service) CurrentSession(ctx context.Context, claims *sec.AuthClaims) (*Session, error) {
	if claims == nil || claims.SessionID == "" {
		return nil, nil
	}

	session, err := service.sessionRepository.FindByID(ctx, claims.SessionID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if session.Expired(service.now()) || session.UserID != claims.UserID {
		return nil, nil
	}
	return session, nil
}

// SessionActive reports whether sessionID still names a live session.
func (service *Service) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	session, err := service.sessionRepository.FindByID(ctx, sessionID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !session.Expired(service.now()), nil
}

// # Provisioning

// ProvisionAccount creates an account or resets the password of an existing one.
func (service *Service) ProvisionAccount(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldEmail, Message: "is required"})
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldPassword,
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}

	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	account := &Account{ID: uuid.New(), Email: email, PasswordHash: hashedPassword}
	if err := service.accountRepository.Upsert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// openSession issues an access token and a refresh token and persists the session.
func (service *Service) openSession(ctx context.Context, account *Account, userAgent, ipAddress string) (*LoginSession, error) {
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	now := service.now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    account.ID,
		Email:     account.Email,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: now.Add(RefreshTokenTTL),
		CreatedAt: now,
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(account.ID, account.Email, session.ID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		Session:               session,
		Account:               account,
	}, nil
}
