package authbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{BaseURL: srv.URL + "/api/auth", HTTPClient: srv.Client()}
	for _, fn := range mutate {
		fn(&opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "ftp://auth"})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "http://"})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "http://auth", TokenExpr: "token[["})
	require.Error(t, err)

	c, err := NewClient(Options{BaseURL: "http://auth"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.SourceReal, c.Source())
}

func TestClient_LoginSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in ports.LoginInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "asha@kec.edu", in.Email)
		assert.Equal(t, "pw", in.Password)

		writeJSON(w, http.StatusOK, map[string]any{
			"token": "jwt-1",
			"user": map[string]any{
				"_id":      "64f0",
				"name":     "Asha",
				"email":    "asha@kec.edu",
				"isAdmin":  false,
				"clubRef":  map[string]any{"_id": "club-9", "name": "Robotics"},
				"isActive": true,
			},
		})
	})

	id, err := c.Login(context.Background(), ports.LoginInput{Email: "asha@kec.edu", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "64f0", id.ID)
	assert.Equal(t, "jwt-1", id.CredentialToken)
	require.NotNil(t, id.ClubRef)
	assert.Equal(t, "club-9", *id.ClubRef)

	role, ok := domainauth.DeriveRole(&id)
	require.True(t, ok)
	assert.Equal(t, domainauth.RoleClub, role)
}

func TestClient_LoginFlatResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":              "u-1",
			"name":            "Ravi",
			"credentialToken": "tok",
			"department":      "ECE",
			"year":            2,
		})
	})

	id, err := c.Login(context.Background(), ports.LoginInput{Email: "r@kec.edu", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "tok", id.CredentialToken)
	assert.True(t, id.IsActive, "missing isActive defaults to active")
	assert.Nil(t, id.ClubRef)
	assert.Equal(t, 2, id.Year)
}

func TestClient_CustomExpressions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"account": map[string]any{"id": "a-1", "isAdmin": true},
				"auth":    map[string]any{"accessToken": "at"},
			},
		})
	}, func(o *Options) {
		o.IdentityExpr = "data.account"
		o.TokenExpr = "data.auth.accessToken"
	})

	id, err := c.Login(context.Background(), ports.LoginInput{Email: "a@kec.edu", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "at", id.CredentialToken)
	assert.True(t, id.IsAdmin)
}

func TestClient_LoginErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		code    apperrors.ErrorCode
		message string
	}{
		{name: "unauthorized", status: 401, body: map[string]string{"message": "Wrong password"}, code: apperrors.ErrCodeInvalidCredentials, message: "Wrong password"},
		{name: "forbidden without message", status: 403, body: nil, code: apperrors.ErrCodeInvalidCredentials, message: "invalid email or password"},
		{name: "server error with message", status: 500, body: map[string]string{"message": "db down"}, code: apperrors.ErrCodeNetwork, message: "db down"},
		{name: "bad gateway generic", status: 502, body: nil, code: apperrors.ErrCodeNetwork, message: "unable to reach the server, please try again"},
		{name: "success without token", status: 200, body: map[string]any{"user": map[string]any{"id": "u"}}, code: apperrors.ErrCodeNetwork, message: "backend returned no credential token"},
		{name: "success without id", status: 200, body: map[string]any{"token": "t", "user": map[string]any{"name": "x"}}, code: apperrors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.Login(context.Background(), ports.LoginInput{Email: "a@kec.edu", Password: "pw"})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, apperrors.Message(err))
			}
		})
	}
}

func TestClient_SignupValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signup", r.URL.Path)
		var in ports.SignupInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Robotics", in.ClubName)
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
	})

	_, err := c.Signup(context.Background(), ports.SignupInput{
		Name: "Robotics", Email: "r@kec.edu", Password: "pw", ClubName: "Robotics",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Email already registered", apperrors.Message(err))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Login(context.Background(), ports.LoginInput{Email: "a@kec.edu", Password: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestDecodeClubRef(t *testing.T) {
	ref, err := decodeClubRef(json.RawMessage(`"c-1"`))
	require.NoError(t, err)
	assert.Equal(t, "c-1", *ref)

	ref, err = decodeClubRef(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, ref)

	_, err = decodeClubRef(json.RawMessage(`{}`))
	require.Error(t, err)

	_, err = decodeClubRef(json.RawMessage(`42`))
	require.Error(t, err)
}
