// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account exposes the signed-in principal and the grants of others.

# Architecture

  - Entities: Profile, Grant (DTOs).
  - Domain: This package depends on the auth package for the Principal entity
    and for authority resolution.
  - Security: Grants of other principals require the USER_VIEW permission.
*/
package account

import (
	"context"

	"github.com/taibuivan/wingconfig/internal/users/auth"
)

// # Views

// Profile is the caller's own identity as stored, with its effective authorities.
type Profile struct {
	auth.Claims
	Phone       string      `json:"phone,omitempty"`
	Status      auth.Status `json:"status"`
	Authorities []string    `json:"authorities"`
}

// Grant is the effective authority set of a principal, broken down by role.
type Grant struct {
	PrincipalID string      `json:"principalId"`
	Email       string      `json:"email"`
	Roles       []auth.Role `json:"roles"`
	Authorities []string    `json:"authorities"`
}

// # Repository Contracts

// PrincipalReader loads principals with their roles and permissions.
//
// Both credential stores of the auth package satisfy it.
type PrincipalReader interface {
	/*
		FindByID retrieves a live principal by ID.

		Returns:
		  - *auth.Principal: Hydrated entity
		  - error: dberr.ErrNotFound or database errors
	*/
	FindByID(ctx context.Context, id string) (*auth.Principal, error)
}
