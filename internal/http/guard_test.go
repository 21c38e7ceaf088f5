package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	mockmetrics "github.com/kec/eventhub/internal/mocks/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := StateFromContext(r.Context())
		if !ok {
			http.Error(w, "no state", http.StatusInternalServerError)
			return
		}
		role, _ := st.Role()
		_, _ = w.Write([]byte("content:" + role.String()))
	})
}

func serveGuarded(g *Guard, caps domainauth.CapabilitySet, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	BrowserDetection()(g.RequireCapabilities(caps)(okHandler())).ServeHTTP(rec, req)
	return rec
}

func TestGuard_APIDecisions(t *testing.T) {
	tests := []struct {
		name       string
		state      domainauth.State
		caps       domainauth.CapabilitySet
		wantStatus int
		wantBody   string
	}{
		{name: "initializing", state: domainauth.InitializingState(), caps: domainauth.AnyRole, wantStatus: http.StatusServiceUnavailable, wantBody: "session_loading"},
		{name: "anonymous", state: domainauth.AnonymousState(1), caps: domainauth.AnyRole, wantStatus: http.StatusUnauthorized, wantBody: "authentication_required"},
		{name: "wrong role", state: activeAs(domainauth.RoleStudent), caps: domainauth.Capabilities(domainauth.RoleAdmin), wantStatus: http.StatusForbidden, wantBody: "insufficient_permissions"},
		{name: "allowed role", state: activeAs(domainauth.RoleClub), caps: domainauth.Capabilities(domainauth.RoleClub, domainauth.RoleAdmin), wantStatus: http.StatusOK, wantBody: "content:club"},
		{name: "any role", state: activeAs(domainauth.RoleStudent), caps: domainauth.AnyRole, wantStatus: http.StatusOK, wantBody: "content:student"},
		{name: "admin is not implicitly club", state: activeAs(domainauth.RoleAdmin), caps: domainauth.Capabilities(domainauth.RoleClub), wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(GuardOptions{Sessions: &fakeSessions{st: tt.state}})
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)

			rec := serveGuarded(g, tt.caps, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGuard_LoadingSetsRetryAfter(t *testing.T) {
	g := NewGuard(GuardOptions{Sessions: &fakeSessions{st: domainauth.InitializingState()}, Renderer: newTestRenderer(t)})
	req := httptest.NewRequest(http.MethodGet, "/student", nil)
	req.Header.Set("Accept", "text/html")

	rec := serveGuarded(g, domainauth.Capabilities(domainauth.RoleStudent), req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Loading your session")
}

func TestGuard_InvalidIdentityIsAnonymous(t *testing.T) {
	st := domainauth.State{Status: domainauth.StatusActive, Identity: &domainauth.Identity{ID: "x"}}
	g := NewGuard(GuardOptions{Sessions: &fakeSessions{st: st}})

	rec := serveGuarded(g, domainauth.AnyRole, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_ReadsLiveState(t *testing.T) {
	sessions := &fakeSessions{st: activeAs(domainauth.RoleAdmin)}
	g := NewGuard(GuardOptions{Sessions: sessions})
	caps := domainauth.Capabilities(domainauth.RoleAdmin)

	rec := serveGuarded(g, caps, httptest.NewRequest(http.MethodGet, "/api/admin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	sessions.set(domainauth.AnonymousState(4))
	rec = serveGuarded(g, caps, httptest.NewRequest(http.MethodGet, "/api/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_BrowserFallbackRendersRestricted(t *testing.T) {
	renderer := newTestRenderer(t)

	t.Run("signed in with wrong role", func(t *testing.T) {
		g := NewGuard(GuardOptions{
			Sessions:   &fakeSessions{st: activeAs(domainauth.RoleStudent)},
			Renderer:   renderer,
			Restricted: &RestrictedView{Renderer: renderer},
		})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Accept", "text/html")

		rec := serveGuarded(g, domainauth.Capabilities(domainauth.RoleAdmin), req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Restricted")
		assert.Contains(t, body, "<strong>Student</strong>")
		assert.Contains(t, body, "Admin.")
		assert.NotContains(t, body, "Switch role")
	})

	t.Run("anonymous", func(t *testing.T) {
		g := NewGuard(GuardOptions{
			Sessions:   &fakeSessions{st: domainauth.AnonymousState(1)},
			Renderer:   renderer,
			Restricted: &RestrictedView{Renderer: renderer},
		})
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)

		rec := serveGuarded(g, domainauth.AnyRole, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "You are not signed in")
		assert.Contains(t, rec.Body.String(), "any signed-in user")
	})

	t.Run("impersonation controls", func(t *testing.T) {
		g := NewGuard(GuardOptions{
			Sessions:   &fakeSessions{st: activeAs(domainauth.RoleClub)},
			Renderer:   renderer,
			Restricted: &RestrictedView{Renderer: renderer, Controls: staticControls{}},
		})
		req := httptest.NewRequest(http.MethodGet, "/student", nil)

		rec := serveGuarded(g, domainauth.Capabilities(domainauth.RoleStudent), req)
		body := rec.Body.String()
		assert.Contains(t, body, "Switch role")
		assert.Contains(t, body, `action="/dev/switch-role"`)
		assert.Contains(t, body, `value="admin"`)
		assert.Contains(t, body, `value="/student"`)
	})
}

func TestGuard_CountsDecisions(t *testing.T) {
	sessions := &fakeSessions{st: domainauth.InitializingState()}
	sink := &mockmetrics.RecordingSink{}
	g := NewGuard(GuardOptions{Sessions: sessions, Metrics: sink})
	admin := domainauth.Capabilities(domainauth.RoleAdmin)

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/admin", nil)
		r.Header.Set("Accept", "application/json")
		return r
	}
	serveGuarded(g, admin, req())
	sessions.set(activeAs(domainauth.RoleStudent))
	serveGuarded(g, admin, req())
	sessions.set(activeAs(domainauth.RoleAdmin))
	serveGuarded(g, admin, req())

	got := sink.Named("guard.decision")
	require.Len(t, got, 3)
	assert.Equal(t, "loading", got[0].Tags["decision"])
	assert.Equal(t, "fallback", got[1].Tags["decision"])
	assert.Equal(t, "content", got[2].Tags["decision"])
	assert.Equal(t, "admin", got[2].Tags["required"])
}
