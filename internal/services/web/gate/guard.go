package gate

import (
	"net/http"

	"github.com/louisbranch/warehouse/internal/services/web/platform/httpx"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/warehouse/internal/services/web/gate"

// Guard applies a gate to an HTTP subtree, rendering exactly one of the
// loading placeholder, a redirect, or the wrapped handler.
type Guard struct {
	// Gate is used when Lookup is nil or finds nothing.
	Gate Gate
	// Lookup resolves the gate per request so policy changes apply without
	// remounting routes.
	Lookup func(*http.Request) (Gate, bool)
	// Sessions reads the request's current session. Nil treats every request
	// as anonymous.
	Sessions func(*http.Request) session.Session
	// Pending serves the loading placeholder.
	Pending http.Handler
	// OnRedirect, when set, runs before a redirect is written.
	OnRedirect func(w http.ResponseWriter, r *http.Request, current session.Session, outcome Outcome)
	// Route is the mount prefix reported on evaluation spans.
	Route string
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Wrap returns next guarded by g.
func (g Guard) Wrap(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	pending := g.Pending
	if pending == nil {
		pending = http.HandlerFunc(defaultPending)
	}
	provider := g.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gate := g.Gate
		if g.Lookup != nil {
			if found, ok := g.Lookup(r); ok {
				gate = found
			}
		}
		current := session.Anonymous()
		if g.Sessions != nil {
			current = g.Sessions(r)
		}

		outcome := gate.Evaluate(current)
		attrs := []attribute.KeyValue{
			attribute.String("gate.policy", gate.Policy().Name),
			attribute.String("gate.outcome", outcome.Kind.String()),
			attribute.String("gate.target", outcome.Target),
			attribute.String("url.path", r.URL.Path),
		}
		if g.Route != "" {
			attrs = append(attrs, attribute.String("http.route", g.Route))
		}
		ctx, span := tracer.Start(r.Context(), "gate.evaluate", trace.WithAttributes(attrs...))
		defer span.End()
		r = r.WithContext(ctx)

		switch outcome.Kind {
		case OutcomePending:
			w.Header().Set("Cache-Control", "no-store")
			pending.ServeHTTP(w, r)
		case OutcomeRedirect:
			w.Header().Set("Cache-Control", "no-store")
			if g.OnRedirect != nil {
				g.OnRedirect(w, r, current, outcome)
			}
			httpx.WriteRedirect(w, r, outcome.Target)
		case OutcomeRender:
			if current.User != nil {
				r = r.WithContext(session.WithIdentity(r.Context(), *current.User))
			}
			next.ServeHTTP(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}

func defaultPending(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteHTML(w, http.StatusOK, "<!doctype html><title>Loading</title><p>Loading…</p>")
}
