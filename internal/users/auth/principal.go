// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements sign-in for the config admin console.

It owns the login attempt and lockout state machine, the access and refresh
token lifecycle, and the resolution of a principal's effective authorities
from its role assignments.

# Architecture

  - Service: Orchestrates Login, Refresh, Logout and identity resolution.
  - CredentialStore: Persistence contract, implemented for PostgreSQL and memory.
  - Security: Bcrypt password verification and HS256 tokens from package sec.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// # Domain Entities

// Status is the lifecycle state of a principal.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"

	// StatusLocked is informational. Whether a principal is locked is decided
	// by [Principal.LockedUntil] alone.
	StatusLocked Status = "LOCKED"
)

// Permission is a named authority granted through roles.
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Module      string `json:"module"`
	Description string `json:"description,omitempty"`
}

// Role is a named bundle of permissions.
//
// Status is carried for administration screens; a role's authorities apply
// whatever its status.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      Status       `json:"status"`
	Permissions []Permission `json:"permissions"`
}

// Principal is an admin console account able to sign in.
type Principal struct {
	ID                  string
	Email               string
	PasswordHash        string
	FullName            string
	Phone               string
	Status              Status
	FailedLoginAttempts int
	LockedUntil         *time.Time
	RefreshToken        *string
	Roles               []Role
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether a lock is still in force at now.
func (principal *Principal) IsLocked(now time.Time) bool {
	return principal.LockedUntil != nil && principal.LockedUntil.After(now)
}

// Clone returns a deep copy, so stores never hand out shared mutable state.
func (principal *Principal) Clone() *Principal {
	if principal == nil {
		return nil
	}

	clone := *principal
	if principal.LockedUntil != nil {
		lockedUntil := *principal.LockedUntil
		clone.LockedUntil = &lockedUntil
	}
	if principal.RefreshToken != nil {
		refreshToken := *principal.RefreshToken
		clone.RefreshToken = &refreshToken
	}
	if principal.Roles != nil {
		clone.Roles = make([]Role, len(principal.Roles))
		for i, role := range principal.Roles {
			clone.Roles[i] = role
			clone.Roles[i].Permissions = append([]Permission(nil), role.Permissions...)
		}
	}
	return &clone
}

// # Identity Normalization

// emailFolder is not safe for concurrent use, so a fresh caser is built per call.
func emailFolder() cases.Caser { return cases.Fold() }

// NormalizeEmail returns the canonical form used to store and look up e-mails.
//
// Addresses are compared case-insensitively, using full Unicode case folding.
func NormalizeEmail(email string) string {
	return emailFolder().String(strings.TrimSpace(email))
}

// # Session Payloads

// Claims describe the signed-in principal to the client.
type Claims struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Session is returned by Login and Refresh.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64  `json:"expiresIn"`
	User      Claims `json:"user"`
}

// # Field Identifiers

// Field names for request validation in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldRefreshToken = "refreshToken"
)
