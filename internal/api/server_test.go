package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/scriptorium/internal/admin"
	"github.com/taibuivan/scriptorium/internal/api"
	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/config"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/querycache"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/users/auth"
)

const apiKey = "public-anon-key"

// emptyCatalog is a [catalog.Store] with no rows.
type emptyCatalog struct{}

func (emptyCatalog) ListAuthors(context.Context) ([]catalog.AuthorRow, error) { return nil, nil }
func (emptyCatalog) FindAuthorBySlug(context.Context, string) (*catalog.AuthorRow, error) {
	return nil, dberr.ErrNotFound
}
func (emptyCatalog) SearchAuthors(context.Context, string) ([]catalog.AuthorRow, error) {
	return nil, nil
}
func (emptyCatalog) ListBooks(context.Context, catalog.BookFilter) ([]catalog.BookRecord, error) {
	return nil, nil
}
func (emptyCatalog) ListBooksByAuthor(context.Context, string) ([]catalog.BookRecord, error) {
	return nil, nil
}
func (emptyCatalog) FindBookByID(context.Context, string) (*catalog.BookRecord, error) {
	return nil, dberr.ErrNotFound
}
func (emptyCatalog) SearchBooks(context.Context, string) ([]catalog.BookRecord, error) {
	return nil, nil
}
func (emptyCatalog) ListCategoryArrays(context.Context) ([][]string, error) { return nil, nil }

// noAccounts and noSessions back an auth service that knows nobody.
type noAccounts struct{}

func (noAccounts) FindByID(context.Context, string) (*auth.Account, error) {
	return nil, apperr.NotFound("Account")
}
func (noAccounts) FindByEmail(context.Context, string) (*auth.Account, error) {
	return nil, apperr.NotFound("Account")
}
func (noAccounts) Upsert(context.Context, *auth.Account) error { return nil }

type noSessions struct{}

func (noSessions) Create(context.Context, *auth.Session) error { return nil }
func (noSessions) FindByTokenHash(context.Context, string) (*auth.Session, error) {
	return nil, apperr.NotFound("Session")
}
func (noSessions) FindByID(context.Context, string) (*auth.Session, error) {
	return nil, apperr.NotFound("Session")
}
func (noSessions) Revoke(context.Context, *auth.Session) error { return nil }

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(string, string, string, time.Duration) (string, error) {
	return "token", nil
}

// stubVerifier accepts a bearer token equal to a user id.
type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	switch token {
	case "admin", "member", "pending":
		return &sec.AuthClaims{UserID: token, Email: token + "@scriptorium-divinum.com", SessionID: "s-" + token}, nil
	}
	return nil, errors.New("invalid token")
}

// stubAuthorizer answers by user id.
type stubAuthorizer struct{}

func (stubAuthorizer) Authorize(_ context.Context, claims *sec.AuthClaims) sec.AccessState {
	switch claims.UserID {
	case "admin":
		return sec.AccessAuthorized
	case "pending":
		return sec.AccessPending
	}
	return sec.AccessUnauthorized
}

func newServer(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := querycache.New(querycache.NewMemoryStore(), logger)
	reader := catalog.NewReader(catalog.NewService(emptyCatalog{}, logger), cache)

	books := admin.NewMemoryRepository[catalog.BookRecord]()
	adminService := admin.NewService(
		admin.NewMemoryAuthorRepository(books),
		books,
		admin.NewMemoryCategoryStore(books),
		admin.NewMemorySettingsStore(),
		reader,
		cache,
		logger,
	)
	authService := auth.NewService(noAccounts{}, noSessions{}, stubTokens{}, logger)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)
	cfg := &config.Config{ServerPort: "0", Environment: "development", CatalogAPIKey: apiKey}

	server := api.NewServer(ctx, cfg, logger, stubVerifier{}, stubAuthorizer{}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, stubAuthorizer{}),
		Catalog:   catalog.NewHandler(reader),
		Admin:     admin.NewHandler(adminService),
	})
	return server.Handler()
}

/*
TestServer_Routing covers the API key, the public routes and every outcome
of the admin gate.
*/
func TestServer_Routing(t *testing.T) {
	handler := newServer(t)

	tests := []struct {
		name       string
		target     string
		key        string
		token      string
		status     int
		retryAfter string
	}{
		{"health", "/health", "", "", http.StatusOK, ""},
		{"ready", "/ready", "", "", http.StatusOK, ""},
		{"missing_key", "/api/v1/authors", "", "", http.StatusUnauthorized, ""},
		{"wrong_key", "/api/v1/authors", "other", "", http.StatusUnauthorized, ""},
		{"authors", "/api/v1/authors", apiKey, "", http.StatusOK, ""},
		{"search", "/api/v1/search?q=fe", apiKey, "", http.StatusOK, ""},
		{"book_missing", "/api/v1/books/nada", apiKey, "", http.StatusNotFound, ""},
		{"bad_token", "/api/v1/authors", apiKey, "forged", http.StatusUnauthorized, ""},
		{"admin_anonymous", "/api/v1/admin/stats", apiKey, "", http.StatusUnauthorized, ""},
		{"admin_member", "/api/v1/admin/stats", apiKey, "member", http.StatusForbidden, ""},
		{"admin_pending", "/api/v1/admin/stats", apiKey, "pending", http.StatusServiceUnavailable, "1"},
		{"admin", "/api/v1/admin/stats", apiKey, "admin", http.StatusOK, ""},
		{"admin_status", "/api/v1/auth/admin-status", apiKey, "member", http.StatusOK, ""},
		{"session_anonymous", "/api/v1/auth/session", apiKey, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.key != "" {
				request.Header.Set("apikey", tt.key)
			}
			if tt.token != "" {
				request.Header.Set("Authorization", "Bearer "+tt.token)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.retryAfter, recorder.Header().Get("Retry-After"))
		})
	}
}

func TestReadiness_Degraded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	}, logger)

	recorder := httptest.NewRecorder()
	readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"degraded"`)
}
