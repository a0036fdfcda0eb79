// Package app composes web modules into the root handler.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/warehouse/internal/services/web/gate"
	module "github.com/louisbranch/warehouse/internal/services/web/module"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/warehouse/internal/services/web/session"
)

// GateLookup resolves the gate guarding a path. Both a static route table and
// a reloading watcher satisfy it.
type GateLookup interface {
	Match(path string) (gate.Gate, bool)
}

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	PublicModules    []module.Module
	ProtectedModules []module.Module
	// Routes decides which gate guards each protected path.
	Routes GateLookup
	// Sessions reads the request's session for the gate.
	Sessions func(*http.Request) session.Session
	// Pending serves the loading placeholder for unresolved sessions.
	Pending http.Handler
	// OnRedirect runs before a gate redirect is written.
	OnRedirect          func(http.ResponseWriter, *http.Request, session.Session, gate.Outcome)
	RequestSchemePolicy requestmeta.SchemePolicy
}

// Compose builds a root HTTP handler from module groups. Public modules are
// mounted as-is; protected modules are wrapped in a gate guard and a
// same-origin check for cookie-authenticated mutations.
func Compose(input ComposeInput) (http.Handler, error) {
	if len(input.ProtectedModules) > 0 && input.Routes == nil {
		return nil, errors.New("route table is required for protected modules")
	}
	root := http.NewServeMux()
	seen := make(map[string]string)

	for _, feature := range input.PublicModules {
		if feature == nil {
			return nil, fmt.Errorf("public module is nil")
		}
		if err := mountPublicModule(root, feature, input.Routes, seen); err != nil {
			return nil, err
		}
	}

	for _, feature := range input.ProtectedModules {
		if feature == nil {
			return nil, fmt.Errorf("protected module is nil")
		}
		if err := mountProtectedModule(root, feature, input, seen); err != nil {
			return nil, err
		}
	}

	return root, nil
}

func mountModule(root *http.ServeMux, feature module.Module, handler http.Handler, prefix string, seen map[string]string) error {
	if previous, ok := seen[prefix]; ok {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
	}
	seen[prefix] = feature.ID()
	root.Handle(prefix, handler)
	return nil
}

func mountPublicModule(root *http.ServeMux, feature module.Module, routes GateLookup, seen map[string]string) error {
	mount, prefix, err := resolveMount(feature)
	if err != nil {
		return err
	}
	if routes != nil {
		if _, guarded := routes.Match(prefix); guarded {
			return fmt.Errorf("module %q has protected prefix %q in public group", feature.ID(), prefix)
		}
	}
	return mountModule(root, feature, mount.Handler, prefix, seen)
}

func mountProtectedModule(root *http.ServeMux, feature module.Module, input ComposeInput, seen map[string]string) error {
	mount, prefix, err := resolveMount(feature)
	if err != nil {
		return err
	}
	fallback, guarded := input.Routes.Match(prefix)
	if !guarded {
		return fmt.Errorf("module %q mounts %q but no route guards it", feature.ID(), prefix)
	}

	guard := gate.Guard{
		Gate: fallback,
		Lookup: func(r *http.Request) (gate.Gate, bool) {
			return input.Routes.Match(r.URL.Path)
		},
		Sessions:   input.Sessions,
		Pending:    input.Pending,
		OnRedirect: input.OnRedirect,
		Route:      prefix,
	}
	handler := guard.Wrap(requireCookieSessionSameOrigin(input.RequestSchemePolicy)(mount.Handler))

	if err := mountModule(root, feature, handler, prefix, seen); err != nil {
		return err
	}
	// Without the alias the bare path would fall through to the public root.
	if alias := strings.TrimSuffix(prefix, "/"); alias != "" {
		if err := mountModule(root, feature, handler, alias, seen); err != nil {
			return err
		}
	}
	return nil
}

func resolveMount(feature module.Module) (module.Mount, string, error) {
	mount, err := feature.Mount()
	if err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if err := validatePrefix(mount.Prefix); err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, mount.Prefix, nil
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("prefix is required")
	case strings.TrimSpace(prefix) != prefix:
		return fmt.Errorf("prefix must not include surrounding whitespace")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("prefix must begin with /")
	case !strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("prefix must end with /")
	default:
		return nil
	}
}

func requireCookieSessionSameOrigin(policy requestmeta.SchemePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutationMethod(r) {
				next.ServeHTTP(w, r)
				return
			}
			if _, hasCookie := sessioncookie.Read(r); !hasCookie {
				next.ServeHTTP(w, r)
				return
			}
			if !requestmeta.HasSameOriginProof(r, policy) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMutationMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
