// Package pagerender writes full-page and HTMX responses through the shared
// layout.
package pagerender

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/warehouse/internal/services/web/platform/flash"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/warehouse/internal/services/web/platform/i18n"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// Page describes one page response.
type Page struct {
	// TitleKey is the localization key of the page title.
	TitleKey string
	// StatusCode defaults to 200.
	StatusCode int
	// Body builds the page content for the resolved localizer.
	Body func(loc templates.Localizer) templ.Component
}

// Renderer holds the request-independent inputs of page rendering.
type Renderer struct {
	Scheme requestmeta.SchemePolicy
	// CanAdmin reports whether the viewer should see administration links.
	CanAdmin func(session.UserIdentity) bool
}

// Write renders page. HTMX requests receive the body fragment only; full
// navigations receive the layout with viewer chrome and any pending notice.
func (rd Renderer) Write(w http.ResponseWriter, r *http.Request, page Page) error {
	if w == nil {
		return nil
	}
	status := page.StatusCode
	if status <= 0 {
		status = http.StatusOK
	}
	loc, lang := webi18n.ResolveLocalizer(w, r)
	var body templ.Component = templ.NopComponent
	if page.Body != nil {
		if built := page.Body(loc); built != nil {
			body = built
		}
	}

	ctx := httpx.RequestContext(r)
	var buf bytes.Buffer
	if httpx.IsHTMXRequest(r) {
		if err := body.Render(ctx, &buf); err != nil {
			return err
		}
	} else {
		layout := templates.Layout(templates.PageContext{
			Title:       templates.T(loc, page.TitleKey),
			Lang:        lang,
			Loc:         loc,
			CurrentPath: currentPath(r),
			Viewer:      rd.viewer(r),
			Toast:       rd.toast(w, r, loc),
			Languages:   languages(),
		})
		if err := layout.Render(templ.WithChildren(ctx, body), &buf); err != nil {
			return err
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func (rd Renderer) viewer(r *http.Request) *templates.Viewer {
	user, ok := session.IdentityFromContext(httpx.RequestContext(r))
	if !ok {
		return nil
	}
	viewer := &templates.Viewer{DisplayName: user.DisplayName}
	if viewer.DisplayName == "" {
		viewer.DisplayName = user.Email
	}
	if user.Role.Known() {
		viewer.RoleKey = "role." + user.Role.String()
	}
	if rd.CanAdmin != nil {
		viewer.CanAdmin = rd.CanAdmin(user)
	}
	return viewer
}

func (rd Renderer) toast(w http.ResponseWriter, r *http.Request, loc templates.Localizer) *templates.Toast {
	notice, ok := flash.ReadAndClear(w, r, rd.Scheme)
	if !ok {
		return nil
	}
	message := strings.TrimSpace(templates.T(loc, notice.Key))
	if message == "" {
		return nil
	}
	return &templates.Toast{Kind: string(notice.Kind), Message: message}
}

func languages() []string {
	tags := webi18n.Supported()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

func currentPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
