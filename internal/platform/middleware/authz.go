// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
	"github.com/taibuivan/wingconfig/internal/platform/constants"
	"github.com/taibuivan/wingconfig/internal/platform/ctxutil"
	"github.com/taibuivan/wingconfig/internal/platform/respond"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
)

// IdentityResolver turns a bearer access token into the caller's identity.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the `auth`
// service implementation, allowing us to easily inject fakes during unit testing.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (*sec.Identity, error)
}

// Authenticate extracts the bearer token from the Authorization header and
// resolves the caller.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve it via [IdentityResolver].
//  4. Inject [*sec.Identity] into the request context for downstream use.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// 1. Anonymous access
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Format validation
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, constants.TokenTypeBearer) || strings.TrimSpace(token) == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format").WithCode("INVALID_TOKEN"))
				return
			}

			// 3. Identity resolution
			identity, err := resolver.ResolveIdentity(request.Context(), strings.TrimSpace(token))
			if err == nil && identity == nil {
				err = apperr.Unauthorized("Invalid or expired token").WithCode("INVALID_TOKEN")
			}
			if err != nil {
				if !apperr.IsAppError(err) {
					ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "identity_resolution_failed",
						slog.String("error", err.Error()),
					)
				}
				respond.Error(writer, request, unauthorizedFrom(err))
				return
			}

			// 4. Context injection
			notePrincipal(request.Context(), identity.PrincipalID)
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// unauthorizedFrom keeps the resolver's 401 error or maps anything else to 500.
func unauthorizedFrom(err error) error {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError
	}
	return apperr.Internal(err)
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAuthority blocks requests whose caller holds none of the given authorities.
//
// Authorities are permission names (USER_VIEW) or role authorities (ROLE_ADMIN).
// It implies [RequireAuth], so you don't need to mount both.
func RequireAuthority(authorities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())

			// 1. Authentication check
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// 2. Authorization check
			if !identity.Can(authorities...) {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "access_denied",
					slog.String("principal_id", identity.PrincipalID),
					slog.Any("required", authorities),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
