// Package dashboard serves the signed-in landing page.
package dashboard

import (
	"net/http"

	"github.com/a-h/templ"
	module "github.com/louisbranch/warehouse/internal/services/web/module"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/platform/weberror"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// Module provides dashboard routes.
type Module struct {
	renderer pagerender.Renderer
}

// New returns the dashboard module.
func New(renderer pagerender.Renderer) Module {
	return Module{renderer: renderer}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "dashboard" }

// Mount wires dashboard routes.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+routepath.Dashboard, m.handleIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.DashboardPrefix+"{$}", m.handleIndex)
	mux.Handle(routepath.DashboardPrefix, weberror.NotFound(m.renderer))
	return module.Mount{Prefix: routepath.DashboardPrefix, Handler: mux}, nil
}

func (m Module) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := session.IdentityFromContext(httpx.RequestContext(r))
	viewer := templates.Viewer{DisplayName: user.DisplayName}
	if viewer.DisplayName == "" {
		viewer.DisplayName = user.Email
	}
	if user.Role.Known() {
		viewer.RoleKey = "role." + user.Role.String()
	}
	err := m.renderer.Write(w, r, pagerender.Page{
		TitleKey: "dashboard.heading",
		Body: func(loc templates.Localizer) templ.Component {
			return templates.Dashboard(loc, viewer)
		},
	})
	if err != nil {
		weberror.Write(w, r, m.renderer, err)
	}
}
