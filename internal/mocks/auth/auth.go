package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.Authenticator = (*StubAuthenticator)(nil)

// StubAuthenticator simulates the auth backend with deterministic identities.
// Login succeeds only for Password == ValidPassword unless LoginFunc is set.
type StubAuthenticator struct {
	LoginFunc  func(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error)
	SignupFunc func(ctx context.Context, in ports.SignupInput) (domainauth.Identity, error)

	ValidPassword string
	SourceKind    domainauth.Source

	mu     sync.Mutex
	logins int
}

// NewStubAuthenticator creates a StubAuthenticator accepting password "secret".
func NewStubAuthenticator() *StubAuthenticator {
	return &StubAuthenticator{ValidPassword: "secret", SourceKind: domainauth.SourceReal}
}

// Source implements ports.Authenticator.
func (s *StubAuthenticator) Source() domainauth.Source {
	if s.SourceKind == 0 {
		return domainauth.SourceReal
	}
	return s.SourceKind
}

// LoginCalls returns how many times Login reached the stub.
func (s *StubAuthenticator) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *StubAuthenticator) Login(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error) {
	s.mu.Lock()
	s.logins++
	n := s.logins
	s.mu.Unlock()

	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, in)
	}
	if in.Password != s.ValidPassword {
		return domainauth.Identity{}, apperrors.InvalidCredentials("")
	}
	return domainauth.Identity{
		ID:              "stub-" + in.Email,
		Name:            "Stub User",
		Email:           in.Email,
		CredentialToken: fmt.Sprintf("token-%d", n),
		IsActive:        true,
		Department:      "CSE",
		Year:            2,
	}, nil
}

func (s *StubAuthenticator) Signup(ctx context.Context, in ports.SignupInput) (domainauth.Identity, error) {
	if s.SignupFunc != nil {
		return s.SignupFunc(ctx, in)
	}
	id := domainauth.Identity{
		ID:              "stub-" + in.Email,
		Name:            in.Name,
		Email:           in.Email,
		CredentialToken: "signup-token",
		IsActive:        true,
		Department:      in.Department,
		Year:            in.Year,
	}
	if in.IsClub() {
		ref := "club-" + in.ClubName
		id.ClubRef = &ref
		id.Department, id.Year = "", 0
	}
	return id, nil
}
