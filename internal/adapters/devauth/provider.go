package devauth

// Package devauth fabricates identities for synthetic builds. It never
// performs I/O and is linked only into binaries built with -tags synthetic.

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/ports"
)

// namespace scopes the deterministic ids and tokens handed out here.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eventhub.local/synthetic"))

const (
	defaultEmail = "dev.admin@kec.edu"
	defaultName  = "Dev User"
)

// Config controls the placeholder identity used at startup.
type Config struct {
	Email string
	Name  string
}

// Provider implements ports.Authenticator and ports.PlaceholderProvider.
// Role flags come from the email: "admin" anywhere sets IsAdmin, "club"
// sets ClubRef, otherwise the identity is a plain student.
type Provider struct {
	placeholder domainauth.Identity
}

var (
	_ ports.Authenticator       = (*Provider)(nil)
	_ ports.PlaceholderProvider = (*Provider)(nil)
)

// NewProvider constructs a Provider; empty Config fields use defaults.
func NewProvider(cfg Config) *Provider {
	email := strings.TrimSpace(cfg.Email)
	if email == "" {
		email = defaultEmail
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = defaultName
	}
	return &Provider{placeholder: fabricate(email, name)}
}

// Source implements ports.Authenticator.
func (p *Provider) Source() domainauth.Source { return domainauth.SourceSynthetic }

// Placeholder implements ports.PlaceholderProvider.
func (p *Provider) Placeholder() domainauth.Identity { return p.placeholder.Clone() }

// Login ignores the password and always succeeds.
func (p *Provider) Login(_ context.Context, in ports.LoginInput) (domainauth.Identity, error) {
	return fabricate(in.Email, nameFromEmail(in.Email)), nil
}

// Signup echoes the submitted profile back as an identity.
func (p *Provider) Signup(_ context.Context, in ports.SignupInput) (domainauth.Identity, error) {
	name := in.Name
	if name == "" {
		name = nameFromEmail(in.Email)
	}
	id := fabricate(in.Email, name)
	if in.IsClub() {
		ref := stableID("club:" + strings.ToLower(in.ClubName))
		id.ClubRef = &ref
		id.Department, id.Year = "", 0
		return id, nil
	}
	if id.ClubRef == nil && !id.IsAdmin {
		id.Department = in.Department
		id.Year = in.Year
	}
	return id, nil
}

func fabricate(email, name string) domainauth.Identity {
	key := strings.ToLower(strings.TrimSpace(email))
	id := domainauth.Identity{
		ID:              stableID("user:" + key),
		Name:            name,
		Email:           strings.TrimSpace(email),
		CredentialToken: "synthetic-" + stableID("token:"+key),
		IsActive:        true,
	}

	switch {
	case strings.Contains(key, "admin"):
		id.IsAdmin = true
	case strings.Contains(key, "club"):
		ref := stableID("club:" + key)
		id.ClubRef = &ref
	default:
		id.Department = "General"
		id.Year = 1
	}
	return id
}

func stableID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return defaultName
	}
	return local
}
