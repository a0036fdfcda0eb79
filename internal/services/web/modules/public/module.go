// Package public serves the unauthenticated pages: landing, sign-in, sign-out
// and the health probe.
package public

import (
	"net/http"

	"github.com/a-h/templ"
	module "github.com/louisbranch/warehouse/internal/services/web/module"
	apperrors "github.com/louisbranch/warehouse/internal/services/web/platform/errors"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/warehouse/internal/services/web/platform/weberror"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// Module provides the public root routes.
type Module struct {
	renderer pagerender.Renderer
	scheme   requestmeta.SchemePolicy
	revoke   func(token string)
}

// New returns the public module. revoke, when set, drops the server-side
// session state for a token on sign-out.
func New(renderer pagerender.Renderer, scheme requestmeta.SchemePolicy, revoke func(token string)) Module {
	return Module{renderer: renderer, scheme: scheme, revoke: revoke}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "public" }

// Mount wires the public routes under the root prefix.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", m.handleLanding)
	mux.HandleFunc(http.MethodGet+" "+routepath.AuthLogin, m.handleLogin)
	mux.HandleFunc(http.MethodPost+" "+routepath.AuthLogout, m.handleLogout)
	mux.Handle(routepath.Health, httpx.AllowMethods(http.MethodGet, http.MethodHead)(http.HandlerFunc(handleHealth)))
	mux.Handle(routepath.Root, weberror.NotFound(m.renderer))
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}

func (m Module) handleLanding(w http.ResponseWriter, r *http.Request) {
	m.write(w, r, "app.name", templates.Landing)
}

func (m Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	m.write(w, r, "login.heading", templates.Login)
}

func (m Module) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessioncookie.Token(r)
	if _, hasCookie := sessioncookie.Read(r); hasCookie && !requestmeta.HasSameOriginProof(r, m.scheme) {
		weberror.Write(w, r, m.renderer, apperrors.EK(apperrors.KindForbidden, "error.forbidden", "sign-out without same-origin proof"))
		return
	}
	if token != "" && m.revoke != nil {
		m.revoke(token)
	}
	sessioncookie.Clear(w, r, m.scheme)
	http.Redirect(w, r, routepath.AuthLogin, http.StatusSeeOther)
}

func (m Module) write(w http.ResponseWriter, r *http.Request, titleKey string, body func(templates.Localizer) templ.Component) {
	if err := m.renderer.Write(w, r, pagerender.Page{TitleKey: titleKey, Body: body}); err != nil {
		weberror.Write(w, r, m.renderer, err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
