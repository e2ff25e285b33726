// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/middleware"
	requestutil "github.com/taibuivan/scriptorium/internal/platform/request"
	"github.com/taibuivan/scriptorium/internal/platform/respond"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
	authorizer  middleware.AdminAuthorizer
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, authorizer middleware.AdminAuthorizer) *Handler {
	return &Handler{authService: service, authorizer: authorizer}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login        : Authenticates and returns a JWT.
//   - POST /refresh      : Rotates the refresh cookie.
//   - POST /logout       : Ends the session.
//   - GET  /session      : Current session, or null.
//   - GET  /admin-status : Authorization probe state for the session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Get("/session", handler.session)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/admin-status", handler.adminStatus)
	})

	return router
}

// # Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionView is the client-facing shape of a [Session].
type sessionView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(session *Session) *sessionView {
	if session == nil {
		return nil
	}
	return &sessionView{
		ID:        session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
}

/*
Login authenticates an account and establishes a session.

POST /api/v1/auth/login

Response:
  - 200: Access token, session and account
  - 400: Validation failure
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, issued)
	respond.OK(writer, tokenPayload(issued))
}

/*
Refresh issues a new access token using the refresh cookie.

POST /api/v1/auth/refresh

Response:
  - 200: New access token credentials
  - 401: Missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	issued, err := handler.authService.RefreshSession(
		request.Context(),
		cookie.Value,
		request.UserAgent(),
		middleware.RealIP(request),
	)
	if err != nil {
		clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, issued)
	respond.OK(writer, tokenPayload(issued))
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

The session is taken from the refresh cookie, or from the access token when
the cookie is absent.

Response:
  - 204: Session terminated (also when there was none)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	input := LogoutInput{}
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		input.RefreshToken = cookie.Value
	} else if claims := requestutil.Claims(request); claims != nil {
		input.SessionID = claims.SessionID
	}

	if err := handler.authService.Logout(request.Context(), input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
Session returns the live session behind the bearer token.

GET /api/v1/auth/session

Response:
  - 200: {"session": {...}} or {"session": null}
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.authService.CurrentSession(request.Context(), requestutil.Claims(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldSession: viewOf(session)})
}

/*
AdminStatus reports the authorization probe state for the current session.

GET /api/v1/auth/admin-status

Response:
  - 200: {"state": "pending"|"authorized"|"unauthorized", "isAdmin": bool}
  - 401: No session
*/
func (handler *Handler) adminStatus(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	state := handler.authorizer.Authorize(request.Context(), claims)
	respond.OK(writer, map[string]any{
		FieldState:   state,
		FieldIsAdmin: state == sec.AccessAuthorized,
	})
}

// # Cookie Handling

func tokenPayload(issued *LoginSession) map[string]any {
	return map[string]any{
		FieldAccessToken: issued.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int(AccessTokenTTL / time.Second),
		FieldSession:     viewOf(issued.Session),
		FieldUser:        issued.Account,
	}
}

func setRefreshCookie(writer http.ResponseWriter, issued *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    issued.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  issued.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
