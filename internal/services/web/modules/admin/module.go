// Package admin serves the administration pages for admins and warehouse
// managers.
package admin

import (
	"net/http"

	"github.com/a-h/templ"
	module "github.com/louisbranch/warehouse/internal/services/web/module"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/platform/weberror"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// Module provides administration routes.
type Module struct {
	renderer pagerender.Renderer
}

// New returns the admin module.
func New(renderer pagerender.Renderer) Module {
	return Module{renderer: renderer}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "admin" }

// Mount wires admin routes. The section index redirects to locations.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" /admin", handleIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.AdminPrefix+"{$}", handleIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.AdminLocations, m.section(templates.AdminLocations, "admin.locations"))
	mux.HandleFunc(http.MethodGet+" "+routepath.AdminUsers, m.section(templates.AdminUsers, "admin.users"))
	mux.Handle(routepath.AdminPrefix, weberror.NotFound(m.renderer))
	return module.Mount{Prefix: routepath.AdminPrefix, Handler: mux}, nil
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	httpx.WriteRedirect(w, r, routepath.AdminLocations)
}

func (m Module) section(active templates.AdminSection, titleKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := m.renderer.Write(w, r, pagerender.Page{
			TitleKey: titleKey,
			Body: func(loc templates.Localizer) templ.Component {
				return templates.Admin(loc, active)
			},
		})
		if err != nil {
			weberror.Write(w, r, m.renderer, err)
		}
	}
}
