package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kec/eventhub/internal/adapters/devauth"
	"github.com/kec/eventhub/internal/adapters/memstore"
	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/ports"
	"github.com/kec/eventhub/internal/service"
)

// newRoleRouter uses the synthetic authenticator so that the email picks the role.
func newRoleRouter(t *testing.T, extra ...func(*RouterServices)) (http.Handler, *service.SessionManager) {
	t.Helper()
	m := service.NewSessionManager(service.SessionManagerOptions{
		Authenticator: devauth.NewProvider(devauth.Config{}),
		Persistence:   service.NewSessionPersistence(service.SessionPersistenceOptions{Store: memstore.New()}),
	})
	m.Initialize(context.Background())

	services := RouterServices{Sessions: m, Renderer: newTestRenderer(t)}
	for _, fn := range extra {
		fn(&services)
	}
	return NewRouter(services), m
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router, _ := newRoleRouter(t)
	rec := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","session":"active","synthetic":false}`, rec.Body.String())
}

func TestRouter_ScreensByRole(t *testing.T) {
	tests := []struct {
		email string
		allow []string
		deny  []string
	}{
		{email: "student@kec.edu", allow: []string{"/", "/student", "/profile"}, deny: []string{"/club", "/admin"}},
		{email: "club@kec.edu", allow: []string{"/", "/club", "/profile"}, deny: []string{"/student", "/admin"}},
		{email: "admin@kec.edu", allow: []string{"/", "/admin", "/profile"}, deny: []string{"/student", "/club"}},
		{email: "clubadmin@kec.edu", allow: []string{"/admin"}, deny: []string{"/club"}},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			router, m := newRoleRouter(t)
			_, err := m.Login(context.Background(), ports.LoginInput{Email: tt.email, Password: "x"})
			require.NoError(t, err)

			for _, p := range tt.allow {
				assert.Equal(t, http.StatusOK, get(router, p).Code, p)
			}
			for _, p := range tt.deny {
				assert.Equal(t, http.StatusForbidden, get(router, p).Code, p)
			}
		})
	}
}

func TestRouter_AnonymousSeesRestricted(t *testing.T) {
	router, m := newRoleRouter(t)
	m.Logout(context.Background())

	for _, p := range []string{"/", "/student", "/profile"} {
		rec := get(router, p)
		assert.Equal(t, http.StatusForbidden, rec.Code, p)
		assert.Contains(t, rec.Body.String(), "You are not signed in")
	}
}

func TestRouter_ProfileShowsIdentity(t *testing.T) {
	router, m := newRoleRouter(t)
	_, err := m.Login(context.Background(), ports.LoginInput{Email: "meera@kec.edu", Password: "x"})
	require.NoError(t, err)

	rec := get(router, "/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meera@kec.edu")
	assert.Contains(t, rec.Body.String(), "synthetic")
}

func TestRouter_UnknownPathIs404(t *testing.T) {
	router, _ := newRoleRouter(t)
	assert.Equal(t, http.StatusNotFound, get(router, "/nope").Code)
}

func TestRouter_APIProxyIsGuarded(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()
	target, _ := url.Parse(backend.URL)

	router, m := newRoleRouter(t, func(s *RouterServices) {
		s.APIProxy = NewAPIProxy(APIProxyOptions{Target: target, Sessions: s.Sessions})
	})

	rec := get(router, "/api/events")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Bearer "+m.State().Identity.CredentialToken, gotAuth)

	m.Logout(context.Background())
	rec = get(router, "/api/events")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Extensions(t *testing.T) {
	called := false
	router, _ := newRoleRouter(t, func(s *RouterServices) {
		s.Extensions = append(s.Extensions, func(mux *http.ServeMux, guard *Guard) {
			mux.Handle("GET /dev/ping", guard.RequireCapabilities(domainauth.Capabilities(domainauth.RoleAdmin))(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					called = true
					w.WriteHeader(http.StatusOK)
				})))
		})
	})

	// placeholder identity is an admin
	assert.Equal(t, http.StatusOK, get(router, "/dev/ping").Code)
	assert.True(t, called)
}
