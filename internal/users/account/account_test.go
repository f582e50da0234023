// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
	"github.com/taibuivan/wingconfig/internal/platform/ctxutil"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
	"github.com/taibuivan/wingconfig/internal/users/account"
	"github.com/taibuivan/wingconfig/internal/users/auth"
)

const (
	adminID  = "0195d0a4-7c1e-7b2a-9f3d-5e6a7b8c9d0e"
	viewerID = "0195d0a4-7c1e-7b2a-9f3d-000000000002"
)

func newStore() *auth.MemoryCredentialStore {
	store := auth.NewMemoryCredentialStore()
	store.Put(&auth.Principal{
		ID:       adminID,
		Email:    "admin@wing.test",
		FullName: "Wing Admin",
		Phone:    "+85512345678",
		Status:   auth.StatusActive,
		Roles: []auth.Role{{ID: "r1", Name: "ADMIN", Permissions: []auth.Permission{
			{ID: "p1", Name: "USER_VIEW", Module: "USER"},
			{ID: "p2", Name: "COUNTRY_VIEW", Module: "COUNTRY"},
		}}},
	})
	store.Put(&auth.Principal{ID: viewerID, Email: "viewer@wing.test", FullName: "Viewer", Status: auth.StatusActive})
	return store
}

type failingReader struct{}

func (failingReader) FindByID(context.Context, string) (*auth.Principal, error) {
	return nil, errors.New("connection reset")
}

/*
TestService_Me returns claims with the effective authorities.
*/
func TestService_Me(t *testing.T) {
	service := account.NewService(newStore())

	profile, err := service.Me(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, "admin@wing.test", profile.Email)
	assert.Equal(t, []string{"ADMIN"}, profile.Roles)
	assert.Equal(t, []string{"COUNTRY_VIEW", "USER_VIEW"}, profile.Permissions)
	assert.Equal(t, []string{"COUNTRY_VIEW", "ROLE_ADMIN", "USER_VIEW"}, profile.Authorities)
	assert.Equal(t, "+85512345678", profile.Phone)

	viewer, err := service.Me(context.Background(), viewerID)
	require.NoError(t, err)
	assert.Empty(t, viewer.Authorities)
	assert.NotNil(t, viewer.Roles)
}

/*
TestService_Errors maps a missing principal to 404 and wraps storage failures.
*/
func TestService_Errors(t *testing.T) {
	_, err := account.NewService(newStore()).Grant(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.As(err).HTTPStatus)

	_, err = account.NewService(failingReader{}).Me(context.Background(), adminID)
	require.Error(t, err)
	assert.False(t, apperr.IsAppError(err))
	assert.Contains(t, err.Error(), "account_service_load_failed")
}

// withIdentity stands in for the Authenticate middleware.
func withIdentity(identity *sec.Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if identity != nil {
			request = request.WithContext(ctxutil.WithIdentity(request.Context(), identity))
		}
		next.ServeHTTP(writer, request)
	})
}

/*
TestHandler_Routes checks authentication, authorization and id validation.
*/
func TestHandler_Routes(t *testing.T) {
	admin := &sec.Identity{PrincipalID: adminID, Authorities: sec.NewAuthorities("ROLE_ADMIN", "USER_VIEW")}
	viewer := &sec.Identity{PrincipalID: viewerID, Authorities: sec.NewAuthorities()}

	router := chi.NewRouter()
	router.Mount("/account", account.NewHandler(account.NewService(newStore())).Routes())

	tests := []struct {
		name     string
		identity *sec.Identity
		path     string
		status   int
	}{
		{"me_anonymous", nil, "/account/me", http.StatusUnauthorized},
		{"me_viewer", viewer, "/account/me", http.StatusOK},
		{"grant_anonymous", nil, "/account/users/" + adminID + "/authorities", http.StatusUnauthorized},
		{"grant_forbidden", viewer, "/account/users/" + adminID + "/authorities", http.StatusForbidden},
		{"grant_bad_id", admin, "/account/users/not-a-uuid/authorities", http.StatusBadRequest},
		{"grant_unknown", admin, "/account/users/0195d0a4-7c1e-7b2a-9f3d-ffffffffffff/authorities", http.StatusNotFound},
		{"grant_viewer", admin, "/account/users/" + viewerID + "/authorities", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			withIdentity(tt.identity, router).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

/*
TestHandler_Grant canonicalizes the id and renders the grant.
*/
func TestHandler_Grant(t *testing.T) {
	admin := &sec.Identity{PrincipalID: adminID, Authorities: sec.NewAuthorities("USER_VIEW")}
	router := chi.NewRouter()
	router.Mount("/account", account.NewHandler(account.NewService(newStore())).Routes())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/account/users/0195D0A4-7C1E-7B2A-9F3D-5E6A7B8C9D0E/authorities", nil)
	withIdentity(admin, router).ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data account.Grant `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, adminID, envelope.Data.PrincipalID)
	assert.Equal(t, []string{"COUNTRY_VIEW", "ROLE_ADMIN", "USER_VIEW"}, envelope.Data.Authorities)
	require.Len(t, envelope.Data.Roles, 1)
	assert.Len(t, envelope.Data.Roles[0].Permissions, 2)
}
