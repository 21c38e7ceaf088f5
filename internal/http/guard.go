package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/observability/metrics"
	"github.com/kec/eventhub/internal/observability/statsd"
)

// StateSource exposes the live session snapshot.
type StateSource interface {
	State() domainauth.State
}

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Sessions   StateSource
	Renderer   *TemplateRenderer // optional; plain-text pages when nil
	Restricted *RestrictedView   // optional
	Metrics    statsd.Sink       // optional
	Logger     *slog.Logger
}

// Guard gates handlers on the live session. Every request reads a fresh
// snapshot, so a transition is visible to the very next request.
type Guard struct {
	sessions   StateSource
	renderer   *TemplateRenderer
	restricted *RestrictedView
	metrics    statsd.Sink
	logger     *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sessions:   opts.Sessions,
		renderer:   opts.Renderer,
		restricted: opts.Restricted,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// RequireCapabilities renders next only when the session's role is in caps
// (any signed-in role when caps is empty). While the session is still
// initializing it answers 503 with Retry-After; otherwise it renders the
// restricted page (browsers) or a 401/403 JSON error (API clients).
func (g *Guard) RequireCapabilities(caps domainauth.CapabilitySet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := g.sessions.State()

			decision := domainauth.Authorize(state, caps)
			metrics.EmitGuardDecision(g.metrics, decision, caps)

			switch decision {
			case domainauth.DecisionContent:
				next.ServeHTTP(w, r.WithContext(SetStateInContext(r.Context(), state)))
			case domainauth.DecisionLoading:
				g.renderLoading(w, r)
			default:
				g.renderFallback(w, r, state, caps)
			}
		})
	}
}

func (g *Guard) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", loadingRetryAfter)
	if !IsBrowserRequest(r) || g.renderer == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "session_loading",
			Err:     errors.New("session is still loading, retry shortly"),
		})
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Loading", CurrentPage: PageLoading}).Build()
	_ = g.renderer.Render(w, http.StatusServiceUnavailable, data)
}

func (g *Guard) renderFallback(
	w http.ResponseWriter,
	r *http.Request,
	state domainauth.State,
	caps domainauth.CapabilitySet,
) {
	role, signedIn := state.Role()
	g.logger.DebugContext(r.Context(), "route guard fallback",
		"path", r.URL.Path,
		"required", caps.String(),
		"signed_in", signedIn,
		"role", role.String(),
	)

	if !IsBrowserRequest(r) || g.restricted == nil {
		if !signedIn {
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "authentication_required",
				Err:     errors.New("authentication required"),
			})
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}

	g.restricted.Render(w, r, state, caps)
}
