package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	eventhub "github.com/kec/eventhub"
	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/observability/statsd"
)

// RouteRegistrar adds routes to the router. Synthetic builds use it to
// mount developer tools.
type RouteRegistrar func(mux *http.ServeMux, guard *Guard)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions SessionService
	Renderer *TemplateRenderer
	// Optional: proxied at /api/ behind the guard.
	APIProxy http.Handler
	// Optional: role-switching controls on the restricted page.
	Impersonation ImpersonationControls
	Extensions    []RouteRegistrar
	Metrics       statsd.Sink // optional
	// Synthetic is reported by /healthz.
	Synthetic bool
	IsDev     bool
	Logger        *slog.Logger
}

// NewRouter creates and configures the HTTP router with browser detection.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	guard := NewGuard(GuardOptions{
		Sessions: services.Sessions,
		Renderer: services.Renderer,
		Restricted: &RestrictedView{
			Renderer: services.Renderer,
			Controls: services.Impersonation,
			Logger:   logger,
		},
		Metrics: services.Metrics,
		Logger:  logger,
	})

	health := &HealthHandler{Sessions: services.Sessions, Synthetic: services.Synthetic}
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	registerAuthRoutes(mux, &AuthHandlers{Sessions: services.Sessions, Renderer: services.Renderer, Logger: logger})
	registerScreenRoutes(mux, guard, &ScreenHandlers{Renderer: services.Renderer, Logger: logger})

	if services.APIProxy != nil {
		mux.Handle("/api/", guard.RequireCapabilities(domainauth.AnyRole)(services.APIProxy))
	}
	for _, register := range services.Extensions {
		register(mux, guard)
	}

	return BrowserDetection()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.LoginPage)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /auth/signup", h.SignupPage)
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerScreenRoutes(mux *http.ServeMux, guard *Guard, h *ScreenHandlers) {
	for _, s := range Screens() {
		mux.Handle("GET "+s.Path, guard.RequireCapabilities(s.Capabilities)(h.Handler(s)))
	}
}

// staticHandler serves /static from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var fsys fs.FS
	if isDev {
		fsys = os.DirFS("frontend/static")
	} else {
		sub, err := fs.Sub(eventhub.StaticFS, "frontend/static")
		if err != nil {
			logger.Error("static sub-filesystem", "error", err)
			return http.NotFoundHandler()
		}
		fsys = sub
	}
	return http.StripPrefix("/static/", http.FileServerFS(fsys))
}

// TemplateFS returns the template filesystem: disk in dev mode, embedded otherwise.
func TemplateFS(isDev bool) (fs.FS, error) {
	if isDev {
		return os.DirFS(TemplatePathFromRoot), nil
	}
	return fs.Sub(eventhub.TemplateFS, "frontend/templates")
}
