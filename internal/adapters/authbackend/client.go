// Package authbackend talks to the portal's REST authentication endpoints.
package authbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

const (
	// DefaultIdentityExpr selects the identity object from a response body.
	DefaultIdentityExpr = "user || @"
	// DefaultTokenExpr selects the credential token from a response body.
	DefaultTokenExpr = "token || credentialToken"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

var _ ports.Authenticator = (*Client)(nil)

type query interface {
	Search(data any) (any, error)
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	IdentityExpr string
	TokenExpr    string
	Logger       *slog.Logger
}

// Client implements ports.Authenticator against POST /login and POST /signup.
type Client struct {
	base       *url.URL
	http       *http.Client
	identityQ  query
	tokenQ     query
	identityEx string
	logger     *slog.Logger
}

// NewClient validates the base URL and compiles the response expressions.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse auth backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("auth backend url: unsupported scheme %q", base.Scheme)
	}
	if strings.TrimSpace(base.Host) == "" {
		return nil, errors.New("auth backend url: missing host")
	}

	identityExpr := strings.TrimSpace(opts.IdentityExpr)
	if identityExpr == "" {
		identityExpr = DefaultIdentityExpr
	}
	tokenExpr := strings.TrimSpace(opts.TokenExpr)
	if tokenExpr == "" {
		tokenExpr = DefaultTokenExpr
	}
	identityQ, err := jmespath.Compile(identityExpr)
	if err != nil {
		return nil, fmt.Errorf("compile identity expression: %w", err)
	}
	tokenQ, err := jmespath.Compile(tokenExpr)
	if err != nil {
		return nil, fmt.Errorf("compile token expression: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		http:       hc,
		identityQ:  identityQ,
		tokenQ:     tokenQ,
		identityEx: identityExpr,
		logger:     logger.With("component", "authbackend"),
	}, nil
}

// Source implements ports.Authenticator.
func (c *Client) Source() domainauth.Source { return domainauth.SourceReal }

// Login posts credentials. 401 and 403 mean the credentials were rejected.
func (c *Client) Login(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error) {
	return c.post(ctx, "login", in, func(status int, msg string) error {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return apperrors.InvalidCredentials(msg)
		}
		return nil
	})
}

// Signup posts a new profile. 400, 409 and 422 carry a user-correctable message.
func (c *Client) Signup(ctx context.Context, in ports.SignupInput) (domainauth.Identity, error) {
	return c.post(ctx, "signup", in, func(status int, msg string) error {
		switch status {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			if msg == "" {
				msg = "signup details were rejected"
			}
			return apperrors.Validation(msg)
		}
		return nil
	})
}

func (c *Client) post(
	ctx context.Context,
	endpoint string,
	payload any,
	classify func(status int, msg string) error,
) (domainauth.Identity, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(endpoint).String(), bytes.NewReader(body))
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "auth backend unreachable", "endpoint", endpoint, "error", err)
		if errors.Is(err, context.Canceled) {
			return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request canceled")
		}
		return domainauth.Identity{}, apperrors.Network("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domainauth.Identity{}, apperrors.Network("", fmt.Errorf("read response: %w", err))
	}

	c.logger.DebugContext(ctx, "auth backend response",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := backendMessage(raw)
		if classified := classify(resp.StatusCode, msg); classified != nil {
			return domainauth.Identity{}, classified
		}
		return domainauth.Identity{}, apperrors.Network(msg, fmt.Errorf("%s: status %d", endpoint, resp.StatusCode))
	}

	return c.decodeIdentity(raw)
}

func (c *Client) decodeIdentity(raw []byte) (domainauth.Identity, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domainauth.Identity{}, apperrors.Network("server returned an unreadable response", err)
	}

	tokenVal, err := c.tokenQ.Search(doc)
	if err != nil {
		return domainauth.Identity{}, apperrors.Network("server returned an unreadable response", err)
	}
	token, _ := tokenVal.(string)
	if strings.TrimSpace(token) == "" {
		return domainauth.Identity{}, apperrors.Network("backend returned no credential token", nil)
	}

	identityVal, err := c.identityQ.Search(doc)
	if err != nil {
		return domainauth.Identity{}, apperrors.Network("server returned an unreadable response", err)
	}
	obj, ok := identityVal.(map[string]any)
	if !ok {
		return domainauth.Identity{}, apperrors.Network(
			"server returned an unreadable response",
			fmt.Errorf("identity expression %q did not select an object", c.identityEx),
		)
	}

	identity, err := identityFromObject(obj)
	if err != nil {
		return domainauth.Identity{}, apperrors.Network("server returned an unreadable response", err)
	}
	identity.CredentialToken = token
	return identity, nil
}

// backendMessage extracts {"message": "..."} from an error body.
func backendMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
