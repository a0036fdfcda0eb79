package templates

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/warehouse/internal/services/web/platform/i18n"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"golang.org/x/text/language"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestLayoutWrapsChildren(t *testing.T) {
	t.Parallel()

	loc := webi18n.Printer(language.AmericanEnglish)
	ctx := templ.WithChildren(context.Background(), Login(loc))
	got := render(t, ctx, Layout(PageContext{Title: "Sign in", Lang: "en-US", Loc: loc}))
	for _, want := range []string{`<html lang="en-US">`, "<title>Sign in | Warehouse</title>", "<h1>Sign in</h1>", `href="/auth/login"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("layout missing %q: %s", want, got)
		}
	}
}

func TestLayoutShowsAdminLinkOnlyForAdmins(t *testing.T) {
	t.Parallel()

	ctx := templ.WithChildren(context.Background(), templ.NopComponent)
	staff := render(t, ctx, Layout(PageContext{Viewer: &Viewer{DisplayName: "Sam"}}))
	if strings.Contains(staff, "/admin/locations") {
		t.Fatalf("staff layout links to admin: %s", staff)
	}
	admin := render(t, ctx, Layout(PageContext{Viewer: &Viewer{DisplayName: "Ada", CanAdmin: true}}))
	if !strings.Contains(admin, "/admin/locations") {
		t.Fatalf("admin layout missing admin link: %s", admin)
	}
}

func TestLayoutEscapesToast(t *testing.T) {
	t.Parallel()

	ctx := templ.WithChildren(context.Background(), templ.NopComponent)
	got := render(t, ctx, Layout(PageContext{Toast: &Toast{Kind: "warning", Message: "<b>denied</b>"}}))
	if strings.Contains(got, "<b>denied</b>") {
		t.Fatalf("toast not escaped: %s", got)
	}
	if !strings.Contains(got, `data-kind="warning">&lt;b&gt;denied&lt;/b&gt;`) {
		t.Fatalf("toast missing: %s", got)
	}
}

func TestLayoutLanguageSwitcher(t *testing.T) {
	t.Parallel()

	ctx := templ.WithChildren(context.Background(), templ.NopComponent)
	got := render(t, ctx, Layout(PageContext{Lang: "pt-BR", Languages: []string{"en-US", "pt-BR"}}))
	for _, want := range []string{`value="en-US">en-US</button>`, `value="pt-BR" disabled>pt-BR</button>`} {
		if !strings.Contains(got, want) {
			t.Fatalf("layout missing %q: %s", want, got)
		}
	}
	single := render(t, ctx, Layout(PageContext{Languages: []string{"en-US"}}))
	if strings.Contains(single, "lang-switch") {
		t.Fatalf("switcher shown with one language: %s", single)
	}
}

func TestLoadingCarriesWatchURL(t *testing.T) {
	t.Parallel()

	got := render(t, context.Background(), Loading(nil, "/auth/session/watch?path=%2Fadmin"))
	if !strings.Contains(got, `data-gate-watch="/auth/session/watch?path=%2Fadmin"`) {
		t.Fatalf("loading page missing watch url: %s", got)
	}
	if !strings.Contains(got, "/static/gate.js") {
		t.Fatalf("loading page missing script: %s", got)
	}
}

func TestAdminMarksActiveSection(t *testing.T) {
	t.Parallel()

	got := render(t, context.Background(), Admin(nil, AdminUsers))
	if !strings.Contains(got, "<strong>admin.users</strong>") {
		t.Fatalf("active tab not marked: %s", got)
	}
	if !strings.Contains(got, `href="/admin/locations"`) {
		t.Fatalf("inactive tab not linked: %s", got)
	}
}

func TestLinksMatchRoutes(t *testing.T) {
	t.Parallel()

	ctx := templ.WithChildren(context.Background(), Admin(nil, ""))
	got := render(t, ctx, Layout(PageContext{Viewer: &Viewer{CanAdmin: true}}))
	for _, path := range []string{routepath.Root, routepath.Dashboard, routepath.AdminLocations, routepath.AdminUsers, routepath.AuthLogout, routepath.StaticPrefix + "app.css"} {
		if !strings.Contains(got, `="`+path+`"`) {
			t.Fatalf("markup missing link to %q: %s", path, got)
		}
	}
	loading := render(t, context.Background(), Loading(nil, ""))
	if !strings.Contains(loading, `src="`+routepath.StaticPrefix+`gate.js"`) {
		t.Fatalf("loading page script path drifted: %s", loading)
	}
}

func TestErrorMessageKey(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		http.StatusNotFound:            "error.not_found",
		http.StatusServiceUnavailable:  "error.unavailable",
		http.StatusInternalServerError: "error.internal",
		http.StatusTeapot:              "error.internal",
	}
	for status, want := range tests {
		if got := ErrorMessageKey(status); got != want {
			t.Fatalf("ErrorMessageKey(%d) = %q, want %q", status, got, want)
		}
	}
}
