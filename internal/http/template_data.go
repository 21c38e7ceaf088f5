package httpx

import (
	"net/http"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// PageMeta describes the page being rendered.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// SessionView is the template-facing summary of a session snapshot.
type SessionView struct {
	SignedIn  bool
	Loading   bool
	Name      string
	Email     string
	Role      domainauth.Role
	Synthetic bool
}

// NewSessionView summarizes state for templates and the status endpoint.
func NewSessionView(state domainauth.State) SessionView {
	v := SessionView{Loading: state.Status == domainauth.StatusInitializing}
	role, ok := state.Role()
	if !ok {
		return v
	}
	v.SignedIn = true
	v.Name = state.Identity.Name
	v.Email = state.Identity.Email
	v.Role = role
	v.Synthetic = state.Source == domainauth.SourceSynthetic
	return v
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a TemplateDataBuilder for the page. The session
// summary comes from the snapshot the guard stored on the request, if any.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	data := map[string]any{
		"Title":       meta.Title,
		"CurrentPage": meta.CurrentPage,
		"Session":     SessionView{},
	}
	if st, ok := StateFromContext(r.Context()); ok {
		data["Session"] = NewSessionView(st)
	}
	return &TemplateDataBuilder{data: data}
}

// WithSession overrides the session summary.
func (b *TemplateDataBuilder) WithSession(state domainauth.State) *TemplateDataBuilder {
	b.data["Session"] = NewSessionView(state)
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
