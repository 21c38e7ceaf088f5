package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// ImpersonationControls is registered only by synthetic builds. It decides
// whether role-switching forms appear on the restricted page and where
// they post.
type ImpersonationControls interface {
	Available(state domainauth.State) bool
	Action() string
}

// RoleOption is one role-switching button.
type RoleOption struct {
	Role    domainauth.Role
	Value   string
	Current bool
}

// RestrictedView renders the access-denied screen.
type RestrictedView struct {
	Renderer *TemplateRenderer
	Controls ImpersonationControls
	Logger   *slog.Logger
}

// Render writes the restricted page with status 403.
func (v *RestrictedView) Render(
	w http.ResponseWriter,
	r *http.Request,
	state domainauth.State,
	caps domainauth.CapabilitySet,
) {
	if v == nil || v.Renderer == nil {
		http.Error(w, "Access Denied: you don't have permission to view this page", http.StatusForbidden)
		return
	}

	role, signedIn := state.Role()
	b := NewTemplateData(r, PageMeta{Title: "Restricted", CurrentPage: PageRestricted}).
		WithSession(state).
		With("Required", caps.Roles()).
		With("SignedIn", signedIn)

	if v.Controls != nil && v.Controls.Available(state) {
		options := make([]RoleOption, 0, len(domainauth.AllRoles()))
		for _, candidate := range domainauth.AllRoles() {
			options = append(options, RoleOption{
				Role:    candidate,
				Value:   candidate.String(),
				Current: signedIn && candidate == role,
			})
		}
		b.With("Impersonation", map[string]any{
			"Action":  v.Controls.Action(),
			"Options": options,
			"Return":  r.URL.RequestURI(),
		})
	}

	if err := v.Renderer.Render(w, http.StatusForbidden, b.Build()); err != nil && v.Logger != nil {
		v.Logger.ErrorContext(r.Context(), "render restricted page", "error", err)
	}
}
