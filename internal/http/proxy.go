package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"golang.org/x/oauth2"
)

// ErrNoCredential is returned by SessionTokenSource when no session is active.
var ErrNoCredential = errors.New("no active session credential")

// SessionTokenSource is an oauth2.TokenSource over the live session: every
// call returns the current identity's credential token as a bearer token.
type SessionTokenSource struct {
	Sessions StateSource
}

// Token implements oauth2.TokenSource.
func (s SessionTokenSource) Token() (*oauth2.Token, error) {
	state := s.Sessions.State()
	if !state.Active() {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: state.Identity.CredentialToken, TokenType: "Bearer"}, nil
}

// APIProxyOptions configures NewAPIProxy.
type APIProxyOptions struct {
	Target   *url.URL
	Sessions StateSource
	Base     http.RoundTripper // defaults to http.DefaultTransport
	Logger   *slog.Logger
}

// NewAPIProxy forwards requests to the portal REST API with the session's
// credential token attached. Requests without a session never leave the process.
func NewAPIProxy(opts APIProxyOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	target := opts.Target

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		Transport: &oauth2.Transport{
			Source: SessionTokenSource{Sessions: opts.Sessions},
			Base:   opts.Base,
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, ErrNoCredential) {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			logger.WarnContext(r.Context(), "api proxy failed", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "network",
				Err:     errors.New("unable to reach the server, please try again"),
			})
		},
	}
}
