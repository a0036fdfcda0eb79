// Package modules lists the feature modules mounted by the web service.
package modules

import (
	"log"
	"net/http"

	module "github.com/louisbranch/warehouse/internal/services/web/module"
	"github.com/louisbranch/warehouse/internal/services/web/modules/admin"
	"github.com/louisbranch/warehouse/internal/services/web/modules/dashboard"
	"github.com/louisbranch/warehouse/internal/services/web/modules/public"
	"github.com/louisbranch/warehouse/internal/services/web/modules/sessionwatch"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/session"
)

// Dependencies carries the shared collaborators of the default modules.
type Dependencies struct {
	Renderer pagerender.Renderer
	Scheme   requestmeta.SchemePolicy
	Routes   sessionwatch.Routes
	// Sources returns the live session for a request's credentials.
	Sources func(*http.Request) session.Source
	// Revoke drops server-side session state for a token on sign-out.
	Revoke func(token string)
	Logger *log.Logger
}

// DefaultPublicModules returns modules served without a gate.
func DefaultPublicModules(deps Dependencies) []module.Module {
	return []module.Module{
		public.New(deps.Renderer, deps.Scheme, deps.Revoke),
		sessionwatch.New(sessionwatch.Config{
			Routes:  deps.Routes,
			Sources: deps.Sources,
			Scheme:  deps.Scheme,
			Logger:  deps.Logger,
		}),
	}
}

// DefaultProtectedModules returns modules mounted behind the route gate.
func DefaultProtectedModules(deps Dependencies) []module.Module {
	return []module.Module{
		dashboard.New(deps.Renderer),
		admin.New(deps.Renderer),
	}
}
