package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

// SessionService defines the session operations the HTTP layer needs.
type SessionService interface {
	State() domainauth.State
	Login(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error)
	Signup(ctx context.Context, in ports.SignupInput) (domainauth.Identity, error)
	Logout(ctx context.Context)
}

// AuthHandlers provides HTTP handlers for authentication operations.
// Form posts from browsers are answered with redirects or re-rendered forms;
// JSON requests get JSON.
type AuthHandlers struct {
	Sessions SessionService
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// statusResponse is the JSON shape of GET /auth/status and successful auth calls.
type statusResponse struct {
	State      string `json:"state"`
	Role       string `json:"role,omitempty"`
	Source     string `json:"source,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Generation uint64 `json:"generation"`
}

func newStatusResponse(state domainauth.State) statusResponse {
	resp := statusResponse{State: state.Status.String(), Generation: state.Generation}
	if role, ok := state.Role(); ok {
		resp.Role = role.String()
		resp.Source = state.Source.String()
		resp.Name = state.Identity.Name
		resp.Email = state.Identity.Email
	}
	return resp
}

// Status handles GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, newStatusResponse(h.Sessions.State()))
}

// LoginPage handles GET /auth/login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Sessions.State().Active() {
		http.Redirect(w, r, SafeRedirectPath(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, formPage{page: PageLogin, title: "Sign in", status: http.StatusOK})
}

// SignupPage handles GET /auth/signup.
func (h *AuthHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	if h.Sessions.State().Active() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, formPage{page: PageSignup, title: "Create account", status: http.StatusOK})
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in ports.LoginInput
	jsonReq := isJSONContent(r)
	if jsonReq {
		if !DecodeJSON(w, r, &in) {
			return
		}
	} else {
		if !parseForm(w, r) {
			return
		}
		in = ports.LoginInput{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	}

	_, err := h.Sessions.Login(r.Context(), in)
	h.respond(w, r, err, formPage{
		page:   PageLogin,
		title:  "Sign in",
		values: map[string]string{"email": in.Email},
		next:   r.URL.Query().Get("next"),
		json:   jsonReq,
	})
}

// Signup handles POST /auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in ports.SignupInput
	jsonReq := isJSONContent(r)
	if jsonReq {
		if !DecodeJSON(w, r, &in) {
			return
		}
	} else {
		if !parseForm(w, r) {
			return
		}
		in = signupFromForm(r)
	}

	_, err := h.Sessions.Signup(r.Context(), in)
	h.respond(w, r, err, formPage{
		page:  PageSignup,
		title: "Create account",
		values: map[string]string{
			"name":       in.Name,
			"email":      in.Email,
			"department": in.Department,
			"year":       yearValue(in.Year),
			"clubName":   in.ClubName,
		},
		json: jsonReq,
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context())
	if IsBrowserRequest(r) {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, newStatusResponse(h.Sessions.State()))
}

type formPage struct {
	page   string
	title  string
	status int
	values map[string]string
	next   string
	json   bool
	err    error
}

func (h *AuthHandlers) respond(w http.ResponseWriter, r *http.Request, err error, page formPage) {
	if err != nil {
		h.logger().InfoContext(r.Context(), "auth request failed",
			"page", page.page,
			"code", apperrors.CodeOf(err),
		)
	}

	if page.json || !IsBrowserRequest(r) {
		if err != nil {
			WriteAppError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, newStatusResponse(h.Sessions.State()))
		return
	}

	if err != nil {
		page.err = err
		page.status = StatusForError(err)
		h.renderForm(w, r, page)
		return
	}
	http.Redirect(w, r, SafeRedirectPath(page.next), http.StatusSeeOther)
}

func (h *AuthHandlers) renderForm(w http.ResponseWriter, r *http.Request, page formPage) {
	if h.Renderer == nil {
		if page.err != nil {
			http.Error(w, apperrors.Message(page.err), page.status)
			return
		}
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}

	b := NewTemplateData(r, PageMeta{Title: page.title, CurrentPage: page.page}).
		WithSession(h.Sessions.State()).
		With("Values", page.values).
		With("Next", SafeRedirectPath(r.URL.Query().Get("next")))
	if page.err != nil {
		msg := apperrors.Message(page.err)
		if apperrors.CodeOf(page.err) == apperrors.ErrCodeInternal {
			msg = "something went wrong, please try again"
		}
		if field := apperrors.GetField(page.err); field != "" {
			b.WithFieldErrors(map[string]string{field: msg})
		}
		b.WithError(msg)
	}

	if err := h.Renderer.Render(w, page.status, b.Build()); err != nil {
		h.logger().ErrorContext(r.Context(), "render auth form", "page", page.page, "error", err)
	}
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return false
	}
	return true
}

func signupFromForm(r *http.Request) ports.SignupInput {
	in := ports.SignupInput{
		Name:       r.PostFormValue("name"),
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		Department: r.PostFormValue("department"),
		ClubName:   r.PostFormValue("clubName"),
	}
	if y, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("year"))); err == nil {
		in.Year = y
	}
	return in
}

func yearValue(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

var errNotRelative = errors.New("redirect must be a relative path")

// SafeRedirectPath returns candidate if it is a same-origin relative path, else "/".
func SafeRedirectPath(candidate string) string {
	if err := checkRelative(candidate); err != nil {
		return "/"
	}
	return candidate
}

func checkRelative(candidate string) error {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return errNotRelative
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return err
	}
	if u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return errNotRelative
	}
	return nil
}
