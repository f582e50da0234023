// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Identity is the authenticated caller of a resource endpoint.
//
// It is rebuilt from the live principal record on every request, so role
// changes apply to the next request even though the access token is unchanged.
type Identity struct {
	PrincipalID string      `json:"id"`
	Email       string      `json:"email"`
	FullName    string      `json:"fullName"`
	Roles       []string    `json:"roles"`
	Authorities Authorities `json:"-"`
}

// Can reports whether the identity holds at least one of the authorities.
func (identity *Identity) Can(authorities ...string) bool {
	if identity == nil {
		return false
	}
	return identity.Authorities.HasAny(authorities...)
}
