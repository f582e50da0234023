// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/wingconfig/internal/platform/constants"
	"github.com/taibuivan/wingconfig/internal/platform/middleware"
	requestutil "github.com/taibuivan/wingconfig/internal/platform/request"
	"github.com/taibuivan/wingconfig/internal/platform/respond"
	"github.com/taibuivan/wingconfig/internal/platform/validate"
	"github.com/taibuivan/wingconfig/pkg/uuid"
)

// Handler implements the HTTP layer for account views.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - GET /me                     : The caller's profile (authenticated).
//   - GET /users/{id}/authorities : A principal's grant (USER_VIEW).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(middleware.RequireAuth).Get("/me", handler.getMe)
	router.With(middleware.RequireAuthority(constants.PermissionUserView)).
		Get("/users/{id}/authorities", handler.getGrant)

	return router
}

/*
GET /api/v1/account/me.

Response:
  - 200: Profile
  - 401: Authentication required
  - 404: The principal was deleted after the token was issued
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.Me(request.Context(), identity.PrincipalID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
GET /api/v1/account/users/{id}/authorities.

Request:
  - id: string (UUID)

Response:
  - 200: Grant
  - 400: Malformed id
  - 403: Missing USER_VIEW
  - 404: Unknown principal
*/
func (handler *Handler) getGrant(writer http.ResponseWriter, request *http.Request) {
	principalID := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID("id", principalID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	canonical, _ := uuid.Canonical(principalID)
	grant, err := handler.accountService.Grant(request.Context(), canonical)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}
