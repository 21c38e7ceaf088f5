// Package devtools mounts role impersonation for synthetic builds. Only the
// synthetic bootstrap imports it, so production binaries do not contain it.
package devtools

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	httpx "github.com/kec/eventhub/internal/http"
)

// SwitchRolePath receives role-switch form posts.
const SwitchRolePath = "/dev/switch-role"

// RoleSwitcher is the synthetic session manager.
type RoleSwitcher interface {
	State() domainauth.State
	SwitchRole(ctx context.Context, target domainauth.Role) error
}

// Controls implements httpx.ImpersonationControls.
type Controls struct{}

var _ httpx.ImpersonationControls = Controls{}

// Available hides the controls only when a real session is active.
func (Controls) Available(state domainauth.State) bool {
	return !state.Active() || state.Source == domainauth.SourceSynthetic
}

// Action implements httpx.ImpersonationControls.
func (Controls) Action() string { return SwitchRolePath }

// Handlers serves the developer endpoints.
type Handlers struct {
	Switcher RoleSwitcher
	Logger   *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Register returns an httpx.RouteRegistrar mounting the developer routes.
// The switch endpoint is deliberately unguarded: it is how a developer
// leaves the restricted page.
func (h *Handlers) Register() httpx.RouteRegistrar {
	return func(mux *http.ServeMux, _ *httpx.Guard) {
		mux.HandleFunc("POST "+SwitchRolePath, h.SwitchRole)
	}
}

type switchRequest struct {
	Role string `json:"role"`
	Next string `json:"next,omitempty"`
}

// SwitchRole handles POST /dev/switch-role with a form or JSON body.
func (h *Handlers) SwitchRole(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		if !httpx.DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, httpx.ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
			return
		}
		req = switchRequest{Role: r.PostFormValue("role"), Next: r.PostFormValue("next")}
	}

	target, ok := domainauth.ParseRole(req.Role)
	var err error
	if !ok {
		err = apperrors.ValidationField("role", "unknown role")
	} else {
		err = h.Switcher.SwitchRole(r.Context(), target)
	}

	if err != nil {
		h.logger().InfoContext(r.Context(), "switch role rejected", "role", req.Role, "code", apperrors.CodeOf(err))
		if httpx.IsBrowserRequest(r) {
			http.Error(w, apperrors.Message(err), httpx.StatusForError(err))
			return
		}
		httpx.WriteAppError(w, err)
		return
	}

	h.logger().InfoContext(r.Context(), "switched synthetic role", "role", target.String())
	if httpx.IsBrowserRequest(r) {
		http.Redirect(w, r, httpx.SafeRedirectPath(req.Next), http.StatusSeeOther)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"role": target.String()})
}
