package config

import (
	"strings"
	"time"
)

// AuthConfig configures the auth backend client used by production builds.
type AuthConfig struct {
	// BackendURL is the base URL serving POST /login and POST /signup.
	BackendURL string        `env:"AUTH_BACKEND_URL"     envDefault:"http://localhost:5000/api/auth"`
	Timeout    time.Duration `env:"AUTH_BACKEND_TIMEOUT" envDefault:"10s"`

	// JMESPath expressions selecting the identity object and the token
	// from a successful response body.
	IdentityExpr string `env:"AUTH_BACKEND_IDENTITY_EXPR" envDefault:"user || @"`
	TokenExpr    string `env:"AUTH_BACKEND_TOKEN_EXPR"    envDefault:"token || credentialToken"`

	// AllowedEmailDomains restricts signup (empty allows any registrable domain).
	AllowedEmailDomains []string `env:"AUTH_ALLOWED_EMAIL_DOMAINS" envSeparator:","`

	// RejectInactive refuses sign-in for blocked student accounts.
	RejectInactive bool `env:"AUTH_REJECT_INACTIVE" envDefault:"false"`

	// DevAuth configures the placeholder identity of synthetic builds.
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// DevAuthConfig controls the synthetic placeholder identity.
// Ignored unless the binary is built with -tags synthetic.
type DevAuthConfig struct {
	Email string `env:"EMAIL" envDefault:"dev.admin@kec.edu"`
	Name  string `env:"NAME"  envDefault:"Dev User"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.BackendURL = strings.TrimSpace(a.BackendURL)
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
	if a.Timeout > time.Minute {
		a.Timeout = time.Minute
	}

	domains := a.AllowedEmailDomains[:0]
	for _, d := range a.AllowedEmailDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	a.AllowedEmailDomains = domains
}
