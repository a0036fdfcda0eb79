package templates

import "net/http"

// Viewer is the signed-in user shown in the app chrome.
type Viewer struct {
	DisplayName string
	RoleKey     string
	CanAdmin    bool
}

// Toast is a one-time notice rendered above the page content.
type Toast struct {
	Kind    string
	Message string
}

// PageContext carries layout inputs shared by every full-page render.
type PageContext struct {
	Title       string
	Lang        string
	Loc         Localizer
	CurrentPath string
	Viewer      *Viewer
	Toast       *Toast
	// Languages lists the selectable language tags. The switcher is hidden
	// when there is nothing to choose between.
	Languages []string
}

func (p PageContext) lang() string {
	if p.Lang == "" {
		return "en-US"
	}
	return p.Lang
}

func (p PageContext) title() string {
	if p.Title == "" {
		return T(p.Loc, "app.name")
	}
	return T(p.Loc, "title.page", p.Title)
}

// AdminSection identifies one administration page.
type AdminSection string

const (
	AdminLocations AdminSection = "locations"
	AdminUsers     AdminSection = "users"
)

// ErrorMessageKey returns the localization key describing status.
func ErrorMessageKey(status int) string {
	switch status {
	case http.StatusNotFound:
		return "error.not_found"
	case http.StatusServiceUnavailable:
		return "error.unavailable"
	default:
		return "error.internal"
	}
}
