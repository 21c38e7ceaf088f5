package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kec/eventhub/config"
	httpx "github.com/kec/eventhub/internal/http"
	"github.com/kec/eventhub/internal/observability/statsd"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Sessions *Sessions
	Logger   *slog.Logger
	Metrics  statsd.Sink // optional
}

// BuildHTTPHandler assembles the router and its middleware chain.
// Order: Recover -> RequestID -> Logging -> Router.
func BuildHTTPHandler(cfg HTTPServerConfig) (http.Handler, error) {
	if cfg.Config == nil || cfg.Sessions == nil {
		return nil, errors.New("http server requires config and sessions")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	templates, err := httpx.TemplateFS(appCfg.IsDev)
	if err != nil {
		return nil, fmt.Errorf("template fs: %w", err)
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{TemplateFS: templates, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	services := httpx.RouterServices{
		Sessions:      cfg.Sessions.Manager,
		Renderer:      renderer,
		Impersonation: cfg.Sessions.addons.Impersonation,
		Extensions:    cfg.Sessions.addons.Extensions,
		Metrics:       cfg.Metrics,
		Synthetic:     Synthetic,
		IsDev:         appCfg.IsDev,
		Logger:        logger,
	}

	if appCfg.HTTP.PortalAPIURL != "" {
		target, perr := url.Parse(appCfg.HTTP.PortalAPIURL)
		if perr != nil || target.Host == "" {
			return nil, fmt.Errorf("invalid PORTAL_API_URL %q", appCfg.HTTP.PortalAPIURL)
		}
		services.APIProxy = httpx.NewAPIProxy(httpx.APIProxyOptions{
			Target:   target,
			Sessions: cfg.Sessions.Manager,
			Logger:   logger,
		})
		logger.Info("portal API proxy enabled", "target", target.Redacted())
	}

	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.RequestID()(h)
	h = httpx.Recover(logger)(h)
	return h, nil
}

func newServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
