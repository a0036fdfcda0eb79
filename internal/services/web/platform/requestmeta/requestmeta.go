// Package requestmeta derives scheme and origin facts from inbound requests.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls whether proxy headers are trusted when deciding the
// request scheme. X-Forwarded-Proto is ignored unless TrustForwardedProto is
// set.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// Origin is a normalized scheme/host/port triple.
type Origin struct {
	Scheme string
	Host   string
	Port   string
}

// Valid reports whether every part of o is known.
func (o Origin) Valid() bool {
	return o.Scheme != "" && o.Host != "" && o.Port != ""
}

// IsHTTPS reports whether r arrived over TLS, or claims to under policy.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return Scheme(r, policy) == "https"
}

// Scheme resolves "http" or "https" for r, or "" when r is nil.
func Scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		if forwarded := normalizeScheme(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
			return forwarded
		}
	}
	if r.URL != nil {
		if scheme := normalizeScheme(r.URL.Scheme); scheme != "" {
			return scheme
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// RequestOrigin returns the origin the request was addressed to.
func RequestOrigin(r *http.Request, policy SchemePolicy) Origin {
	if r == nil {
		return Origin{}
	}
	scheme := Scheme(r, policy)
	host, port := splitHost(r.Host)
	if host == "" && r.URL != nil {
		host, port = splitHost(r.URL.Host)
	}
	if port == "" {
		port = defaultPort(scheme)
	}
	return Origin{Scheme: scheme, Host: host, Port: port}
}

// ParseOrigin normalizes an Origin or Referer header value.
func ParseOrigin(raw string) (Origin, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Origin{}, false
	}
	scheme := normalizeScheme(parsed.Scheme)
	origin := Origin{
		Scheme: scheme,
		Host:   strings.ToLower(parsed.Hostname()),
		Port:   parsed.Port(),
	}
	if origin.Port == "" {
		origin.Port = defaultPort(scheme)
	}
	return origin, origin.Valid()
}

// HasSameOriginProof reports whether the Origin header, or failing that the
// Referer header, names the same origin as the request itself. Requests with
// neither header have no proof.
func HasSameOriginProof(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	self := RequestOrigin(r, policy)
	if !self.Valid() {
		return false
	}
	claimed := strings.TrimSpace(r.Header.Get("Origin"))
	if claimed == "" {
		claimed = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claimed == "" {
		return false
	}
	other, ok := ParseOrigin(claimed)
	return ok && other == self
}

func normalizeScheme(raw string) string {
	switch scheme := strings.ToLower(strings.TrimSpace(raw)); scheme {
	case "http", "https":
		return scheme
	default:
		return ""
	}
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}

func splitHost(raw string) (string, string) {
	parsed, err := url.Parse("//" + strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	return strings.ToLower(parsed.Hostname()), parsed.Port()
}
