// Package sessionwatch streams gate outcomes to the loading placeholder over
// a websocket so the page can move on as soon as the session resolves.
package sessionwatch

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/warehouse/internal/services/web/gate"
	module "github.com/louisbranch/warehouse/internal/services/web/module"
	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"golang.org/x/net/websocket"
)

// FollowParam keeps the stream open past the first decided outcome.
const FollowParam = "follow"

// DefaultRetryInterval is how often an open stream looks its session up
// again.
const DefaultRetryInterval = 2 * time.Second

// Routes resolves the gate guarding a page path.
type Routes interface {
	Match(path string) (gate.Gate, bool)
}

// Frame is one outcome sent to the client.
type Frame struct {
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
}

// Config wires the module to the route table and session provider.
type Config struct {
	Routes Routes
	// Sources returns the live session for the request's credentials.
	Sources func(*http.Request) session.Source
	Scheme  requestmeta.SchemePolicy
	Logger  *log.Logger
	// RetryInterval paces repeated lookups on an open stream, so a session
	// whose resolution failed is retried without the client reconnecting.
	RetryInterval time.Duration
}

// Module provides the session watch endpoint.
type Module struct {
	cfg Config
}

// New returns the session watch module.
func New(cfg Config) Module {
	return Module{cfg: cfg}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "sessionwatch" }

// Mount wires the watch endpoint under the session auth prefix.
func (m Module) Mount() (module.Mount, error) {
	if m.cfg.Routes == nil {
		return module.Mount{}, errors.New("session watch: routes are required")
	}
	if m.cfg.Sources == nil {
		return module.Mount{}, errors.New("session watch: session sources are required")
	}
	mux := http.NewServeMux()
	mux.Handle(routepath.SessionWatch, httpx.AllowMethods(http.MethodGet)(http.HandlerFunc(m.serveWatch)))
	return module.Mount{Prefix: routepath.AuthPrefix + "session/", Handler: mux}, nil
}

func (m Module) serveWatch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path := routepath.Clean(query.Get(routepath.WatchParam))
	follow := query.Get(FollowParam) == "1"

	if !strings.EqualFold(strings.TrimSpace(r.Header.Get("Upgrade")), "websocket") {
		m.serveOutcome(w, r, path)
		return
	}

	server := websocket.Server{
		Handshake: m.handshake,
		Handler: func(conn *websocket.Conn) {
			m.stream(conn, path, follow)
		},
	}
	server.ServeHTTP(w, r)
}

// serveOutcome answers a plain GET with the current outcome for clients that
// poll instead of holding a socket open.
func (m Module) serveOutcome(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Cache-Control", "no-store")
	if err := httpx.WriteJSON(w, http.StatusOK, frameFor(m.outcome(r, path))); err != nil {
		m.logf("session watch: write outcome %s: %v", path, err)
	}
}

func (m Module) outcome(r *http.Request, path string) gate.Outcome {
	g, guarded := m.cfg.Routes.Match(path)
	if !guarded {
		return gate.Render()
	}
	return g.Evaluate(m.cfg.Sources(r).Current())
}

// handshake only accepts upgrades initiated by this site's own pages.
func (m Module) handshake(cfg *websocket.Config, r *http.Request) error {
	if cfg.Origin == nil {
		return errors.New("missing origin")
	}
	origin, ok := requestmeta.ParseOrigin(cfg.Origin.String())
	if !ok {
		return errors.New("invalid origin")
	}
	if origin != requestmeta.RequestOrigin(r, m.cfg.Scheme) {
		return errors.New("cross-origin session watch")
	}
	return nil
}

func (m Module) stream(conn *websocket.Conn, path string, follow bool) {
	defer conn.Close()
	r := conn.Request()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Client frames carry nothing; a failed read means the peer went away.
	go func() {
		defer cancel()
		var discard []byte
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	g, guarded := m.cfg.Routes.Match(path)
	if !guarded {
		_ = websocket.JSON.Send(conn, frameFor(gate.Render()))
		return
	}

	go m.keepResolving(ctx, r)

	for outcome := range g.Watch(ctx, m.cfg.Sources(r)) {
		if err := websocket.JSON.Send(conn, frameFor(outcome)); err != nil {
			m.logf("session watch: send %s: %v", path, err)
			return
		}
		if outcome.Kind != gate.OutcomePending && !follow {
			return
		}
	}
}

// keepResolving repeats the session lookup until ctx ends. A lookup restarts
// resolution when the last attempt failed or the result went stale.
func (m Module) keepResolving(ctx context.Context, r *http.Request) {
	interval := m.cfg.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cfg.Sources(r)
		}
	}
}

func (m Module) logf(format string, args ...any) {
	if m.cfg.Logger == nil {
		return
	}
	m.cfg.Logger.Printf(format, args...)
}

func frameFor(outcome gate.Outcome) Frame {
	return Frame{Kind: outcome.Kind.String(), Target: outcome.Target}
}
