// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"slices"
	"strings"

	"github.com/taibuivan/wingconfig/internal/platform/constants"
)

// # Authorities

// Authorities is a deduplicated set of granted authority strings.
//
// It holds permission names (e.g. "APP_LANGUAGE_VIEW") and role tags
// (e.g. "ROLE_ADMIN"). The zero value is an empty set.
type Authorities map[string]struct{}

// NewAuthorities builds a set from the given names, ignoring blanks.
func NewAuthorities(names ...string) Authorities {
	set := make(Authorities, len(names))
	for _, name := range names {
		set.Add(name)
	}
	return set
}

// RoleAuthority returns the authority tag granted by holding the named role.
func RoleAuthority(roleName string) string {
	return constants.RoleAuthorityPrefix + roleName
}

// Add inserts name into the set. Blank names are ignored.
func (set Authorities) Add(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	set[name] = struct{}{}
}

// Has reports whether the set grants authority.
func (set Authorities) Has(authority string) bool {
	_, ok := set[authority]
	return ok
}

// HasAny reports whether the set grants at least one of the authorities.
func (set Authorities) HasAny(authorities ...string) bool {
	for _, authority := range authorities {
		if set.Has(authority) {
			return true
		}
	}
	return false
}

// HasRole reports whether the set carries the tag of the named role.
func (set Authorities) HasRole(roleName string) bool {
	return set.Has(RoleAuthority(roleName))
}

// List returns the authorities in ascending order.
func (set Authorities) List() []string {
	list := make([]string, 0, len(set))
	for authority := range set {
		list = append(list, authority)
	}
	slices.Sort(list)
	return list
}
