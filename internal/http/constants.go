package httpx

// CurrentPage constants identify pages in templates and navigation.
const (
	PageHome       = "home"
	PageStudent    = "student"
	PageClub       = "club"
	PageAdmin      = "admin"
	PageProfile    = "profile"
	PageLogin      = "login"
	PageSignup     = "signup"
	PageRestricted = "restricted"
	PageLoading    = "loading"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

const (
	maxBodyBytes      = 1 << 20
	loadingRetryAfter = "1"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:       "home-content",
	PageStudent:    "screen-content",
	PageClub:       "screen-content",
	PageAdmin:      "screen-content",
	PageProfile:    "profile-content",
	PageLogin:      "login-content",
	PageSignup:     "signup-content",
	PageRestricted: "restricted-content",
	PageLoading:    "loading-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}
