package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// Screen is one guarded page of the portal.
type Screen struct {
	Path         string
	Page         string
	Title        string
	Capabilities domainauth.CapabilitySet
}

// Screens lists the portal's pages and the roles each accepts.
// An empty capability set admits any signed-in role.
func Screens() []Screen {
	return []Screen{
		{Path: "/{$}", Page: PageHome, Title: "Home", Capabilities: domainauth.AnyRole},
		{Path: "/student", Page: PageStudent, Title: "Student dashboard", Capabilities: domainauth.Capabilities(domainauth.RoleStudent)},
		{Path: "/club", Page: PageClub, Title: "Club dashboard", Capabilities: domainauth.Capabilities(domainauth.RoleClub)},
		{Path: "/admin", Page: PageAdmin, Title: "Admin dashboard", Capabilities: domainauth.Capabilities(domainauth.RoleAdmin)},
		{Path: "/profile", Page: PageProfile, Title: "Profile", Capabilities: domainauth.AnyRole},
	}
}

// ScreenHandlers renders guarded pages. Page bodies are placeholders; the
// guard has already authorized the request by the time they run.
type ScreenHandlers struct {
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

// Handler returns the handler for screen s.
func (h *ScreenHandlers) Handler(s Screen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, _ := StateFromContext(r.Context())
		if h.Renderer == nil || !IsBrowserRequest(r) {
			WriteJSON(w, http.StatusOK, map[string]any{
				"page":    s.Page,
				"session": newStatusResponse(state),
			})
			return
		}

		b := NewTemplateData(r, PageMeta{Title: s.Title, CurrentPage: s.Page})
		if state.Active() {
			b.With("Identity", state.Identity)
		}
		if err := h.Renderer.Render(w, http.StatusOK, b.Build()); err != nil && h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "render screen", "page", s.Page, "error", err)
		}
	})
}
