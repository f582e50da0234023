// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
	"github.com/taibuivan/wingconfig/internal/platform/ctxutil"
	"github.com/taibuivan/wingconfig/internal/platform/dberr"
	"github.com/taibuivan/wingconfig/internal/users/auth"
)

// # Service Layer

// Service serves read-only views over principals and their grants.
type Service struct {
	principals PrincipalReader
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(principals PrincipalReader) *Service {
	return &Service{principals: principals}
}

/*
Me returns the live profile of the signed-in principal.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - *Profile: Claims plus the effective authority list
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Me(context context.Context, principalID string) (*Profile, error) {
	principal, err := service.load(context, principalID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Claims:      auth.ClaimsOf(principal),
		Phone:       principal.Phone,
		Status:      principal.Status,
		Authorities: auth.ResolveAuthorities(principal.Roles).List(),
	}, nil
}

/*
Grant returns the roles and effective authorities of any principal.

Used by administrators auditing role assignments.
*/
func (service *Service) Grant(context context.Context, principalID string) (*Grant, error) {
	principal, err := service.load(context, principalID)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "grant_inspected",
		slog.String("target_principal_id", principalID),
	)

	roles := principal.Roles
	if roles == nil {
		roles = []auth.Role{}
	}

	return &Grant{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Roles:       roles,
		Authorities: auth.ResolveAuthorities(roles).List(),
	}, nil
}

func (service *Service) load(context context.Context, principalID string) (*auth.Principal, error) {
	principal, err := service.principals.FindByID(context, principalID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_load_failed: %w", err)
	}
	return principal, nil
}
