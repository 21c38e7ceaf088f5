package auth

// Package auth contains domain-level types for identities, roles, and the portal session.
// It is pure and free of framework/adapter concerns.

import "strings"

// Role is the closed set of roles a portal visitor can act as.
// Roles are never stored; they are always derived from an Identity with DeriveRole.
type Role uint8

const (
	RoleStudent Role = iota + 1
	RoleClub
	RoleAdmin
)

// AllRoles lists every role in display order.
func AllRoles() []Role { return []Role{RoleStudent, RoleClub, RoleAdmin} }

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleClub:
		return "club"
	case RoleAdmin:
		return "admin"
	default:
		return ""
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool { return r >= RoleStudent && r <= RoleAdmin }

// ParseRole parses the lowercase role name produced by Role.String.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, true
	case "club":
		return RoleClub, true
	case "admin":
		return RoleAdmin, true
	default:
		return 0, false
	}
}

// Identity is one authenticated principal.
// The JSON form is the persisted profile record; the credential token is
// persisted separately and never serialized with the profile.
type Identity struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	CredentialToken string  `json:"-"`
	IsAdmin         bool    `json:"isAdmin"`
	ClubRef         *string `json:"clubRef,omitempty"`
	IsActive        bool    `json:"isActive"`
	Department      string  `json:"department,omitempty"`
	Year            int     `json:"year,omitempty"`
}

// Valid reports whether the identity carries a credential token.
// An identity without one must be treated as absent.
func (i *Identity) Valid() bool {
	return i != nil && i.CredentialToken != ""
}

// Clone returns a deep copy so snapshots never share the ClubRef pointer.
func (i Identity) Clone() Identity {
	if i.ClubRef != nil {
		ref := *i.ClubRef
		i.ClubRef = &ref
	}
	return i
}

// Equal compares two identities field by field, including the token.
func (i Identity) Equal(o Identity) bool {
	if (i.ClubRef == nil) != (o.ClubRef == nil) {
		return false
	}
	if i.ClubRef != nil && *i.ClubRef != *o.ClubRef {
		return false
	}
	return i.ID == o.ID && i.Name == o.Name && i.Email == o.Email &&
		i.CredentialToken == o.CredentialToken && i.IsAdmin == o.IsAdmin &&
		i.IsActive == o.IsActive && i.Department == o.Department && i.Year == o.Year
}

// DeriveRole computes the role of an identity.
// Admin wins over club, club wins over student. A nil or tokenless identity has no role.
func DeriveRole(identity *Identity) (Role, bool) {
	if !identity.Valid() {
		return 0, false
	}
	switch {
	case identity.IsAdmin:
		return RoleAdmin, true
	case identity.ClubRef != nil:
		return RoleClub, true
	default:
		return RoleStudent, true
	}
}
