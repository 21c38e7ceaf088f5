//go:build !synthetic

package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/kec/eventhub/config"
	"github.com/kec/eventhub/internal/adapters/authbackend"
	"github.com/kec/eventhub/internal/service"
)

// Synthetic reports whether this binary was built with the synthetic auth source.
const Synthetic = false

// newAuthSource wires the auth backend client. Production builds carry
// no developer routes or impersonation controls.
func newAuthSource(cfg *config.AppConfig, logger *slog.Logger) (authSource, error) {
	client, err := authbackend.NewClient(authbackend.Options{
		BaseURL:      cfg.Auth.BackendURL,
		Timeout:      cfg.Auth.Timeout,
		IdentityExpr: cfg.Auth.IdentityExpr,
		TokenExpr:    cfg.Auth.TokenExpr,
		Logger:       logger,
	})
	if err != nil {
		return authSource{}, fmt.Errorf("auth backend: %w", err)
	}
	return authSource{
		Authenticator: client,
		routes:        func(*service.SessionManager) routeAddons { return routeAddons{} },
	}, nil
}
