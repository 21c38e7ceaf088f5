package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// LoginInput carries credentials for a login attempt.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput carries a new account profile.
// A non-empty ClubName selects the club signup path; otherwise the student
// path applies and Department and Year are required.
type SignupInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	ClubName   string `json:"clubName,omitempty"`
}

// IsClub reports whether the input follows the club signup path.
func (in SignupInput) IsClub() bool { return in.ClubName != "" }

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=../mocks/authenticator_mock.go github.com/kec/eventhub/internal/ports Authenticator

// Authenticator verifies credentials and produces identities.
// Errors must be *errors.AppError values carrying invalid_credentials,
// validation, or network codes.
type Authenticator interface {
	Source() domainauth.Source
	Login(ctx context.Context, in LoginInput) (domainauth.Identity, error)
	Signup(ctx context.Context, in SignupInput) (domainauth.Identity, error)
}

// PlaceholderProvider is implemented by authenticators that can fabricate
// a session at startup without any I/O.
type PlaceholderProvider interface {
	Placeholder() domainauth.Identity
}

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=../mocks/kv_store_mock.go github.com/kec/eventhub/internal/ports KeyValueStore

// KeyValueStore is durable storage for small string records.
type KeyValueStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetMany writes all entries atomically: either all are written or none.
	SetMany(ctx context.Context, entries map[string]string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
