//go:build synthetic

package service

import (
	"context"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

const placeholderClubRef = "synthetic-club"

// SwitchRole replaces the synthetic identity with one whose derived role is
// target. ID, Name, and token are preserved. Only synthetic sessions can be
// switched; an anonymous synthetic session starts from the placeholder.
func (m *SessionManager) SwitchRole(ctx context.Context, target domainauth.Role) error {
	if !target.Valid() {
		return apperrors.ValidationField("role", "unknown role")
	}
	if m.auth.Source() != domainauth.SourceSynthetic {
		return apperrors.Validation("role switching is only available for synthetic sessions")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.State()
	var base domainauth.Identity
	switch {
	case cur.Active() && cur.Source == domainauth.SourceSynthetic:
		base = cur.Identity.Clone()
	case cur.Active():
		return apperrors.Validation("role switching is only available for synthetic sessions")
	default:
		pp, ok := m.auth.(ports.PlaceholderProvider)
		if !ok {
			return apperrors.Internal("no placeholder identity available")
		}
		base = pp.Placeholder()
	}

	next := withRole(base, target)
	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}
	m.publishLocked(ctx, domainauth.ActiveState(next, domainauth.SourceSynthetic, 0), "switch_role")
	return nil
}

func withRole(identity domainauth.Identity, target domainauth.Role) domainauth.Identity {
	next := identity.Clone()
	switch target {
	case domainauth.RoleAdmin:
		next.IsAdmin = true
	case domainauth.RoleClub:
		next.IsAdmin = false
		if next.ClubRef == nil {
			ref := placeholderClubRef
			next.ClubRef = &ref
		}
	case domainauth.RoleStudent:
		next.IsAdmin = false
		next.ClubRef = nil
	}
	return next
}
