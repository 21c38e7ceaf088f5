package auth

import "strings"

// CapabilitySet is the set of roles a screen accepts.
// The zero value is empty and accepts any authenticated role.
type CapabilitySet uint8

// Capabilities builds a set from roles; invalid roles are ignored.
func Capabilities(roles ...Role) CapabilitySet {
	var c CapabilitySet
	for _, r := range roles {
		if r.Valid() {
			c |= 1 << r
		}
	}
	return c
}

// AnyRole is the empty set.
const AnyRole CapabilitySet = 0

// Empty reports whether no role is listed.
func (c CapabilitySet) Empty() bool { return c == 0 }

// Contains reports whether role is listed.
func (c CapabilitySet) Contains(role Role) bool {
	return role.Valid() && c&(1<<role) != 0
}

// Allows reports whether an authenticated role may pass.
func (c CapabilitySet) Allows(role Role) bool {
	if !role.Valid() {
		return false
	}
	return c.Empty() || c.Contains(role)
}

// Roles lists the members in display order.
func (c CapabilitySet) Roles() []Role {
	out := make([]Role, 0, 3)
	for _, r := range AllRoles() {
		if c.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

func (c CapabilitySet) String() string {
	if c.Empty() {
		return "any"
	}
	names := make([]string, 0, 3)
	for _, r := range c.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, ",")
}

// Decision is the outcome of gating a screen.
type Decision uint8

const (
	// DecisionLoading means the session is still initializing.
	DecisionLoading Decision = iota
	// DecisionFallback means the restricted-access view is shown.
	DecisionFallback
	// DecisionContent means the protected content is shown.
	DecisionContent
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionFallback:
		return "fallback"
	case DecisionContent:
		return "content"
	default:
		return "unknown"
	}
}

// Authorize decides how a screen gated by caps renders under state.
// It is total: every state resolves to one of the three decisions.
func Authorize(state State, caps CapabilitySet) Decision {
	switch state.Status {
	case StatusInitializing:
		return DecisionLoading
	case StatusActive:
		role, ok := state.Role()
		if ok && caps.Allows(role) {
			return DecisionContent
		}
		return DecisionFallback
	default:
		return DecisionFallback
	}
}
