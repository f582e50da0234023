// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/wingconfig/internal/platform/middleware"
	requestutil "github.com/taibuivan/wingconfig/internal/platform/request"
	"github.com/taibuivan/wingconfig/internal/platform/respond"
	"github.com/taibuivan/wingconfig/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
	throttle    func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
//
// throttle guards the credential-bearing endpoints; nil disables it.
func NewHandler(service *Service, throttle func(http.Handler) http.Handler) *Handler {
	return &Handler{authService: service, throttle: throttle}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login   : Authenticates and returns a token pair.
//   - POST /refresh : Rotates the refresh token and returns a new pair.
//   - POST /logout  : Forgets the stored refresh token (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Group(func(r chi.Router) {
		if handler.throttle != nil {
			r.Use(handler.throttle)
		}
		r.Post("/login", handler.login)
		r.Post("/refresh", handler.refresh)
	})

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authService))
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

/*
Login authenticates a principal and issues a token pair.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Token pair and claims
  - 400: ErrInvalidJSON or validation failure
  - 401: INVALID_CREDENTIALS, ACCOUNT_LOCKED or ACCOUNT_INACTIVE
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
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

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Refresh exchanges a refresh token for a new token pair.

POST /api/v1/auth/refresh

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: Session: New token pair and claims
  - 400: Missing refresh token
  - 401: INVALID_TOKEN, PRINCIPAL_NOT_FOUND or TOKEN_MISMATCH
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required(FieldRefreshToken, input.RefreshToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
Logout terminates the caller's refresh token.

POST /api/v1/auth/logout

Response:
  - 204: No Content
  - 401: Not authenticated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), identity.PrincipalID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
