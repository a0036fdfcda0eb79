// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root            = "/"
	Health          = "/up"
	StaticPrefix    = "/static/"
	AuthPrefix      = "/auth/"
	AuthLogin       = "/auth/login"
	AuthLogout      = "/auth/logout"
	SessionWatch    = "/auth/session/watch"
	Dashboard       = "/dashboard"
	DashboardPrefix = "/dashboard/"
	AdminPrefix     = "/admin/"
	AdminLocations  = "/admin/locations"
	AdminUsers      = "/admin/users"
)

// WatchParam carries the watched page path on SessionWatch.
const WatchParam = "path"

// SessionWatchFor returns the session watch endpoint for a page path.
func SessionWatchFor(path string) string {
	query := url.Values{}
	query.Set(WatchParam, Clean(path))
	return SessionWatch + "?" + query.Encode()
}

// Clean normalizes a user-supplied page path to an absolute, same-site path.
// Anything that could leave the site collapses to Root.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, `\`) {
		return Root
	}
	parsed, err := url.Parse(path)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return Root
	}
	return parsed.Path
}

// HasPrefix reports whether path lies under prefix on a segment boundary. A
// trailing-slash prefix also matches its bare form ("/admin/" matches "/admin").
func HasPrefix(path string, prefix string) bool {
	if prefix == "" {
		return false
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
