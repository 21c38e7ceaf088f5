package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/kec/eventhub/config"
	domainauth "github.com/kec/eventhub/internal/domain/auth"
	httpx "github.com/kec/eventhub/internal/http"
	"github.com/kec/eventhub/internal/observability/metrics"
	"github.com/kec/eventhub/internal/observability/statsd"
	"github.com/kec/eventhub/internal/ports"
	"github.com/kec/eventhub/internal/service"
)

// authSource is what the build-tagged source files provide.
type authSource struct {
	Authenticator ports.Authenticator
	routes        func(*service.SessionManager) routeAddons
}

// routeAddons are extra routes and controls a source mounts on the router.
type routeAddons struct {
	Extensions    []httpx.RouteRegistrar
	Impersonation httpx.ImpersonationControls
}

// SessionDeps groups what BuildSessions needs.
type SessionDeps struct {
	Config *config.AppConfig
	Store  ports.KeyValueStore
	Logger *slog.Logger
	// Metrics is optional; nil disables emission.
	Metrics statsd.Sink
}

// Sessions is the wired session manager plus the routes its source adds.
type Sessions struct {
	Manager *service.SessionManager
	addons  routeAddons
}

// BuildSessions constructs the process-wide SessionManager over the
// auth source compiled into this binary.
func BuildSessions(deps SessionDeps) (*Sessions, error) {
	if deps.Config == nil {
		return nil, errors.New("sessions config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("sessions store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src, err := newAuthSource(deps.Config, logger)
	if err != nil {
		return nil, err
	}

	manager := service.NewSessionManager(service.SessionManagerOptions{
		Authenticator: src.Authenticator,
		Persistence: service.NewSessionPersistence(service.SessionPersistenceOptions{
			Store:     deps.Store,
			KeyPrefix: deps.Config.Storage.KeyPrefix,
			Logger:    logger,
			Metrics:   deps.Metrics,
		}),
		Logger:              logger,
		Metrics:             deps.Metrics,
		AllowedEmailDomains: deps.Config.Auth.AllowedEmailDomains,
		RejectInactive:      deps.Config.Auth.RejectInactive,
	})

	if deps.Metrics != nil {
		manager.Subscribe(func(st domainauth.State) {
			metrics.EmitSessionState(deps.Metrics, st)
		})
	}

	return &Sessions{Manager: manager, addons: src.routes(manager)}, nil
}
