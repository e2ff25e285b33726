package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/users/auth"
)

// # Fakes

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
}

func (repository *fakeAccounts) FindByID(_ context.Context, id string) (*auth.Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, account := range repository.accounts {
		if account.ID == id {
			found := *account
			return &found, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repository *fakeAccounts) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if account, ok := repository.accounts[strings.ToLower(email)]; ok {
		found := *account
		return &found, nil
	}
	return nil, dberr.ErrNotFound
}

func (repository *fakeAccounts) Upsert(_ context.Context, account *auth.Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	key := strings.ToLower(account.Email)
	if existing, ok := repository.accounts[key]; ok {
		account.ID = existing.ID
	}
	stored := *account
	repository.accounts[key] = &stored
	return nil
}

type fakeSessions struct {
	mu      sync.Mutex
	byHash  map[string]*auth.Session
	revoked int
}

func (repository *fakeSessions) Create(_ context.Context, session *auth.Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored := *session
	repository.byHash[session.TokenHash] = &stored
	return nil
}

func (repository *fakeSessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if session, ok := repository.byHash[tokenHash]; ok {
		found := *session
		return &found, nil
	}
	return nil, apperr.NotFound("Session")
}

func (repository *fakeSessions) FindByID(_ context.Context, sessionID string) (*auth.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.byHash {
		if session.ID == sessionID {
			found := *session
			return &found, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repository *fakeSessions) Revoke(_ context.Context, session *auth.Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.byHash, session.TokenHash)
	repository.revoked++
	return nil
}

func (repository *fakeSessions) count() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.byHash)
}

type recorder struct {
	mu     sync.Mutex
	events []auth.SessionEvent
}

func (r *recorder) OnSessionChange(_ context.Context, event auth.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []auth.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]auth.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

// # Fixtures

const (
	adminEmail    = "admin@scriptorium-divinum.com"
	adminPassword = "veritas-lux-mea"
)

type fixture struct {
	service  *auth.Service
	tokens   *sec.TokenService
	accounts *fakeAccounts
	sessions *fakeSessions
	events   *recorder
}

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	tokens, err := sec.NewTokenServiceFromPEM(privatePEM, publicPEM, "scriptorium-divinum")
	require.NoError(t, err)
	return tokens
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tokens:   newTokenService(t),
		accounts: &fakeAccounts{accounts: map[string]*auth.Account{}},
		sessions: &fakeSessions{byHash: map[string]*auth.Session{}},
		events:   &recorder{},
	}
	f.service = auth.NewService(f.accounts, f.sessions, f.tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.service.Subscribe(f.events)

	_, err := f.service.ProvisionAccount(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	return f
}

func login(t *testing.T, f *fixture) *auth.LoginSession {
	t.Helper()
	issued, err := f.service.Login(context.Background(), auth.LoginInput{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	return issued
}

/*
TestService_Login covers bad credentials and a successful sign-in.
*/
func TestService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown_email", "ninguem@example.com", adminPassword},
		{"wrong_password", adminEmail, "wrong-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Login(ctx, auth.LoginInput{Email: tt.email, Password: tt.password})
			require.Error(t, err)
			assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
		})
	}

	issued, err := f.service.Login(ctx, auth.LoginInput{Email: "  ADMIN@scriptorium-divinum.com ", Password: adminPassword})
	require.NoError(t, err)

	claims, err := f.tokens.VerifyToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, issued.Session.ID, claims.SessionID)
	assert.Equal(t, issued.Account.ID, claims.UserID)
	assert.Equal(t, sec.HashToken(issued.RefreshToken), issued.Session.TokenHash)
	assert.Equal(t, []auth.EventType{auth.EventSignedIn}, f.events.types())
}

/*
TestService_RefreshSession verifies rotation: the presented token stops working
and observers learn both session IDs.
*/
func TestService_RefreshSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := login(t, f)

	second, err := f.service.RefreshSession(ctx, first.RefreshToken, "agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.sessions.count())

	_, err = f.service.RefreshSession(ctx, first.RefreshToken, "agent", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	f.events.mu.Lock()
	last := f.events.events[len(f.events.events)-1]
	f.events.mu.Unlock()
	assert.Equal(t, auth.EventRefreshed, last.Type)
	assert.Equal(t, first.Session.ID, last.PreviousSessionID)
	assert.Equal(t, second.Session.ID, last.SessionID)
}

/*
TestService_Logout verifies that logout is idempotent and publishes once.
*/
func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := login(t, f)

	require.NoError(t, f.service.Logout(ctx, auth.LogoutInput{RefreshToken: issued.RefreshToken}))
	require.NoError(t, f.service.Logout(ctx, auth.LogoutInput{RefreshToken: issued.RefreshToken}))
	require.NoError(t, f.service.Logout(ctx, auth.LogoutInput{}))

	assert.Zero(t, f.sessions.count())
	assert.Equal(t, []auth.EventType{auth.EventSignedIn, auth.EventSignedOut}, f.events.types())
}

func TestService_LogoutBySessionID(t *testing.T) {
	f := newFixture(t)
	issued := login(t, f)

	require.NoError(t, f.service.Logout(context.Background(), auth.LogoutInput{SessionID: issued.Session.ID}))

	active, err := f.service.SessionActive(context.Background(), issued.Session.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

/*
TestService_CurrentSession verifies the null session for anonymous, revoked and
mismatched claims.
*/
func TestService_CurrentSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := login(t, f)

	claims, err := f.tokens.VerifyToken(issued.AccessToken)
	require.NoError(t, err)

	session, err := f.service.CurrentSession(ctx, claims)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, issued.Session.ID, session.ID)

	session, err = f.service.CurrentSession(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, session)

	forged := *claims
	forged.UserID = "someone-else"
	session, err = f.service.CurrentSession(ctx, &forged)
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, f.service.Logout(ctx, auth.LogoutInput{SessionID: claims.SessionID}))
	session, err = f.service.CurrentSession(ctx, claims)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestService_Subscribe(t *testing.T) {
	f := newFixture(t)
	extra := &recorder{}
	unsubscribe := f.service.Subscribe(extra)

	login(t, f)
	unsubscribe()
	unsubscribe()
	login(t, f)

	assert.Equal(t, []auth.EventType{auth.EventSignedIn}, extra.types())
}

/*
TestService_ProvisionAccount covers validation and password replacement for an
existing email.
*/
func TestService_ProvisionAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ProvisionAccount(ctx, "", adminPassword)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	_, err = f.service.ProvisionAccount(ctx, adminEmail, "short")
	require.Error(t, err)

	original, err := f.accounts.FindByEmail(ctx, adminEmail)
	require.NoError(t, err)

	updated, err := f.service.ProvisionAccount(ctx, adminEmail, "nova-senha-segura")
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)

	_, err = f.service.Login(ctx, auth.LoginInput{Email: adminEmail, Password: "nova-senha-segura"})
	require.NoError(t, err)
}
