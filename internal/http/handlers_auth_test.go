package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/service"
)

func newAuthHandlers(t *testing.T) (*AuthHandlers, http.Handler) {
	t.Helper()
	h := &AuthHandlers{Sessions: newTestManager(t), Renderer: newTestRenderer(t)}
	mux := http.NewServeMux()
	registerAuthRoutes(mux, h)
	return h, BrowserDetection()(mux)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthHandlers_JSONLogin(t *testing.T) {
	h, handler := newAuthHandlers(t)

	rec := postJSON(t, handler, "/auth/login", `{"email":"asha@kec.edu","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "active", body["state"])
	assert.Equal(t, "student", body["role"])
	assert.Equal(t, "real", body["source"])
	assert.NotContains(t, rec.Body.String(), "token-", "credential token must not be echoed")

	assert.True(t, h.Sessions.State().Active())
}

func TestAuthHandlers_JSONErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
		field  string
	}{
		{name: "bad credentials", path: "/auth/login", body: `{"email":"a@kec.edu","password":"nope"}`, status: 401, code: "invalid_credentials"},
		{name: "missing password", path: "/auth/login", body: `{"email":"a@kec.edu"}`, status: 422, code: "validation", field: "password"},
		{name: "unknown field", path: "/auth/login", body: `{"user":"a"}`, status: 400, code: "invalid_json"},
		{name: "student signup without year", path: "/auth/signup", body: `{"name":"R","email":"r@kec.edu","password":"p","department":"ECE"}`, status: 422, code: "validation", field: "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, handler := newAuthHandlers(t)
			rec := postJSON(t, handler, tt.path, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.code, body["error"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
			assert.Equal(t, domainauth.StatusAnonymous, h.Sessions.State().Status)
		})
	}
}

func TestAuthHandlers_FormLoginRedirects(t *testing.T) {
	h, handler := newAuthHandlers(t)

	rec := postForm(handler, "/auth/login?next=/profile", url.Values{"email": {"asha@kec.edu"}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile", rec.Header().Get("Location"))
	assert.True(t, h.Sessions.State().Active())
}

func TestAuthHandlers_FormLoginRejectsOffsiteNext(t *testing.T) {
	_, handler := newAuthHandlers(t)

	rec := postForm(handler, "/auth/login?next=//evil.example", url.Values{"email": {"asha@kec.edu"}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAuthHandlers_FormLoginFailureRerenders(t *testing.T) {
	_, handler := newAuthHandlers(t)

	rec := postForm(handler, "/auth/login", url.Values{"email": {"asha@kec.edu"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "invalid email or password")
	assert.Contains(t, body, `value="asha@kec.edu"`)
}

func TestAuthHandlers_FormSignupClub(t *testing.T) {
	h, handler := newAuthHandlers(t)

	rec := postForm(handler, "/auth/signup", url.Values{
		"name":     {"Robotics"},
		"email":    {"robotics@kec.edu"},
		"password": {"pw"},
		"clubName": {"Robotics"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	role, ok := h.Sessions.State().Role()
	require.True(t, ok)
	assert.Equal(t, domainauth.RoleClub, role)
}

func TestAuthHandlers_LogoutAndStatus(t *testing.T) {
	h, handler := newAuthHandlers(t)
	m, ok := h.Sessions.(*service.SessionManager)
	require.True(t, ok)
	loginAs(t, m, "asha@kec.edu")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", decodeBody(t, rec)["state"])

	rec = postJSON(t, handler, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", decodeBody(t, rec)["state"])

	loginAs(t, m, "asha@kec.edu")
	rec = postForm(handler, "/auth/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.False(t, m.State().Active())
}

func TestAuthHandlers_LoginPageRedirectsWhenSignedIn(t *testing.T) {
	h, handler := newAuthHandlers(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")

	loginAs(t, h.Sessions.(*service.SessionManager), "asha@kec.edu")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSafeRedirectPath(t *testing.T) {
	assert.Equal(t, "/club?tab=events", SafeRedirectPath("/club?tab=events"))
	for _, bad := range []string{"", "https://evil.example/", "//evil.example", "/\\evil.example", "relative"} {
		assert.Equal(t, "/", SafeRedirectPath(bad), bad)
	}
}
