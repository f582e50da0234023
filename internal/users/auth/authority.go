// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"sort"
	"strings"

	"github.com/taibuivan/wingconfig/internal/platform/sec"
	"github.com/taibuivan/wingconfig/pkg/slice"
)

// # Permission Resolution

// ResolveAuthorities returns the effective authority set of the given roles:
// every permission name plus "ROLE_<name>" for each role.
func ResolveAuthorities(roles []Role) sec.Authorities {
	authorities := sec.NewAuthorities()
	for _, role := range roles {
		for _, permission := range role.Permissions {
			authorities.Add(permission.Name)
		}
		if strings.TrimSpace(role.Name) != "" {
			authorities.Add(sec.RoleAuthority(role.Name))
		}
	}
	return authorities
}

// roleNames lists role names in assignment order.
func roleNames(roles []Role) []string {
	names := slice.Unique(slice.Map(roles, func(role Role) string { return role.Name }))
	if names == nil {
		return []string{}
	}
	return names
}

// permissionNames lists the distinct permission names of all roles, sorted.
func permissionNames(roles []Role) []string {
	names := []string{}
	for _, role := range roles {
		names = append(names, slice.Map(role.Permissions, func(permission Permission) string { return permission.Name })...)
	}
	names = slice.Unique(names)
	sort.Strings(names)
	return names
}

// ClaimsOf builds the client-facing claims from the live principal record.
func ClaimsOf(principal *Principal) Claims {
	return Claims{
		ID:          principal.ID,
		Email:       principal.Email,
		FullName:    principal.FullName,
		Roles:       roleNames(principal.Roles),
		Permissions: permissionNames(principal.Roles),
	}
}

// identityFor builds the request identity from the live principal record.
func identityFor(principal *Principal) *sec.Identity {
	return &sec.Identity{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		FullName:    principal.FullName,
		Roles:       roleNames(principal.Roles),
		Authorities: ResolveAuthorities(principal.Roles),
	}
}
