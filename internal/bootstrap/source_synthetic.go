//go:build synthetic

package bootstrap

import (
	"log/slog"

	"github.com/kec/eventhub/config"
	"github.com/kec/eventhub/internal/adapters/devauth"
	httpx "github.com/kec/eventhub/internal/http"
	"github.com/kec/eventhub/internal/http/devtools"
	"github.com/kec/eventhub/internal/service"
)

// Synthetic reports whether this binary was built with the synthetic auth source.
const Synthetic = true

// newAuthSource wires the synthetic provider and mounts role switching.
func newAuthSource(cfg *config.AppConfig, logger *slog.Logger) (authSource, error) {
	provider := devauth.NewProvider(devauth.Config{
		Email: cfg.Auth.DevAuth.Email,
		Name:  cfg.Auth.DevAuth.Name,
	})
	logger.Warn("synthetic auth source enabled; do not deploy this build",
		"placeholder_email", provider.Placeholder().Email)

	return authSource{
		Authenticator: provider,
		routes: func(manager *service.SessionManager) routeAddons {
			h := &devtools.Handlers{Switcher: manager, Logger: logger}
			return routeAddons{
				Extensions:    []httpx.RouteRegistrar{h.Register()},
				Impersonation: devtools.Controls{},
			}
		},
	}, nil
}
