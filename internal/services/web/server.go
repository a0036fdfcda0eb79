// Package web hosts the warehouse browser-facing service: public pages and
// the role-gated dashboard and administration areas.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/warehouse/internal/platform/timeouts"
	"github.com/louisbranch/warehouse/internal/services/web/app"
	"github.com/louisbranch/warehouse/internal/services/web/gate"
	"github.com/louisbranch/warehouse/internal/services/web/modules"
	"github.com/louisbranch/warehouse/internal/services/web/platform/flash"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/platform/observability"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/warehouse/internal/services/web/platform/weberror"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/routetable"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	webstatic "github.com/louisbranch/warehouse/internal/services/web/static"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr string
	// Routes decides which gate guards each path. Nil uses the built-in table.
	Routes app.GateLookup
	// Sessions resolves session cookies. Nil treats every visitor as
	// anonymous.
	Sessions            *session.Provider
	RequestSchemePolicy requestmeta.SchemePolicy
	// Logger receives request and gate logs. Nil uses the standard logger.
	Logger *log.Logger
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler from the default modules.
func NewHandler(cfg Config) (http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	routes := cfg.Routes
	if routes == nil {
		routes = routetable.Default()
	}
	provider := cfg.Sessions
	if provider == nil {
		provider = session.NewProvider(session.ProviderConfig{})
	}
	scheme := cfg.RequestSchemePolicy

	renderer := pagerender.Renderer{
		Scheme:   scheme,
		CanAdmin: canAccess(routes, routepath.AdminPrefix),
	}
	deps := modules.Dependencies{
		Renderer: renderer,
		Scheme:   scheme,
		Routes:   routes,
		Sources: func(r *http.Request) session.Source {
			return provider.Source(sessioncookie.Token(r))
		},
		Revoke: func(token string) {
			provider.Revoke(session.Key(token))
		},
		Logger: logger,
	}

	h, err := app.Compose(app.ComposeInput{
		PublicModules:    modules.DefaultPublicModules(deps),
		ProtectedModules: modules.DefaultProtectedModules(deps),
		Routes:           routes,
		Sessions: func(r *http.Request) session.Session {
			return provider.Snapshot(r.Context(), sessioncookie.Token(r))
		},
		Pending:             loadingPage(renderer),
		OnRedirect:          deniedNotice(scheme, logger),
		RequestSchemePolicy: scheme,
	})
	if err != nil {
		return nil, err
	}

	rootMux := http.NewServeMux()
	rootMux.Handle(routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(webstatic.FS))))
	rootMux.Handle(routepath.Root, h)
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	), nil
}

// loadingPage renders the placeholder for sessions that are still resolving.
// The page follows the session watch stream for its own path.
func loadingPage(renderer pagerender.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		watchURL := routepath.SessionWatchFor(r.URL.Path)
		err := renderer.Write(w, r, pagerender.Page{
			TitleKey: "loading.heading",
			Body: func(loc templates.Localizer) templ.Component {
				return templates.Loading(loc, watchURL)
			},
		})
		if err != nil {
			weberror.Write(w, r, renderer, err)
		}
	})
}

// deniedNotice leaves a flash for signed-in users bounced off a page their
// role cannot see. Anonymous visitors go to sign-in without one.
func deniedNotice(scheme requestmeta.SchemePolicy, logger *log.Logger) func(http.ResponseWriter, *http.Request, session.Session, gate.Outcome) {
	return func(w http.ResponseWriter, r *http.Request, current session.Session, outcome gate.Outcome) {
		if !current.IsAuthenticated() {
			return
		}
		logger.Printf("gate denied path=%s user=%s role=%s target=%s request_id=%s",
			r.URL.Path, current.User.ID, current.User.Role, outcome.Target, httpx.RequestIDFrom(r))
		flash.Write(w, r, flash.Warning("notice.access_denied"), scheme)
	}
}

func canAccess(routes app.GateLookup, path string) func(session.UserIdentity) bool {
	return func(user session.UserIdentity) bool {
		g, guarded := routes.Match(path)
		if !guarded {
			return true
		}
		return g.Evaluate(session.Authenticated(user)).Kind == gate.OutcomeRender
	}
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
