// Package routetable maps URL prefixes to access gates.
//
// A table is normally loaded from YAML:
//
//	targets:
//	  unauthenticated: /auth/login
//	  unauthorized: /dashboard
//	routes:
//	  - prefix: /dashboard/
//	    policy: authenticated
//	  - prefix: /admin/
//	    policy: roles
//	    roles: [admin, warehouse_manager]
//
// Match picks the longest prefix that contains the request path.
package routetable

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/louisbranch/warehouse/internal/services/web/gate"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"gopkg.in/yaml.v3"
)

// Policy names accepted in route files.
const (
	PolicyAuthenticated  = "authenticated"
	PolicyRoles          = "roles"
	PolicyAdminOrManager = "admin_or_manager"
)

// Route binds a prefix to a gate.
type Route struct {
	Prefix string
	Gate   gate.Gate
}

// Table is an immutable set of routes.
type Table struct {
	targets gate.Targets
	routes  []Route
}

type fileSpec struct {
	Targets gate.Targets `yaml:"targets"`
	Routes  []routeSpec  `yaml:"routes"`
}

type routeSpec struct {
	Prefix       string   `yaml:"prefix"`
	Policy       string   `yaml:"policy"`
	Roles        []string `yaml:"roles"`
	Unauthorized string   `yaml:"unauthorized"`
}

// Default returns the built-in table: the dashboard needs any signed-in user
// and administration needs an admin or warehouse manager.
func Default() *Table {
	targets := gate.DefaultTargets()
	return newTable(targets, []Route{
		{Prefix: routepath.DashboardPrefix, Gate: gate.New(gate.Authenticated(), targets)},
		{Prefix: routepath.AdminPrefix, Gate: gate.New(gate.AdminOrManager(), targets)},
	})
}

// Load reads and parses the table at path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("route table %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes and validates a YAML route table. Unknown fields are errors.
func Parse(data []byte) (*Table, error) {
	var file fileSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, errors.New("no routes declared")
	}

	targets, err := validateTargets(file.Targets)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(file.Routes))
	routes := make([]Route, 0, len(file.Routes))
	for idx, rs := range file.Routes {
		route, err := buildRoute(rs, targets)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", idx, err)
		}
		if _, dup := seen[route.Prefix]; dup {
			return nil, fmt.Errorf("routes[%d]: duplicate prefix %q", idx, route.Prefix)
		}
		seen[route.Prefix] = struct{}{}
		routes = append(routes, route)
	}
	return newTable(targets, routes), nil
}

func validateTargets(targets gate.Targets) (gate.Targets, error) {
	for _, target := range []string{targets.Unauthenticated, targets.Unauthorized} {
		if target = strings.TrimSpace(target); target != "" && routepath.Clean(target) != target {
			return gate.Targets{}, fmt.Errorf("target %q must be a site-relative path", target)
		}
	}
	return gate.New(gate.Policy{}, targets).Targets(), nil
}

func buildRoute(rs routeSpec, targets gate.Targets) (Route, error) {
	prefix := strings.TrimSpace(rs.Prefix)
	if prefix == "" || routepath.Clean(prefix) != prefix {
		return Route{}, fmt.Errorf("prefix %q must be a site-relative path", rs.Prefix)
	}

	var policy gate.Policy
	switch name := strings.TrimSpace(rs.Policy); name {
	case PolicyAuthenticated:
		if len(rs.Roles) > 0 {
			return Route{}, fmt.Errorf("policy %q does not take roles", name)
		}
		policy = gate.Authenticated()
	case PolicyAdminOrManager:
		policy = gate.AdminOrManager()
	case PolicyRoles:
		if len(rs.Roles) == 0 {
			return Route{}, errors.New("policy \"roles\" needs at least one role")
		}
		roles := make([]session.Role, 0, len(rs.Roles))
		for _, raw := range rs.Roles {
			role, ok := session.ParseRole(raw)
			if !ok {
				return Route{}, fmt.Errorf("unknown role %q, want one of %v", raw, session.Roles())
			}
			roles = append(roles, role)
		}
		policy = gate.RoleIn(roles...)
	default:
		return Route{}, fmt.Errorf("unknown policy %q", rs.Policy)
	}

	if target := strings.TrimSpace(rs.Unauthorized); target != "" {
		if routepath.Clean(target) != target {
			return Route{}, fmt.Errorf("unauthorized target %q must be a site-relative path", target)
		}
		policy = policy.WithUnauthorizedTarget(target)
	}
	return Route{Prefix: prefix, Gate: gate.New(policy, targets)}, nil
}

func newTable(targets gate.Targets, routes []Route) *Table {
	sorted := append([]Route(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Table{targets: targets, routes: sorted}
}

// Match returns the gate of the longest prefix containing path.
func (t *Table) Match(path string) (gate.Gate, bool) {
	if t == nil {
		return gate.Gate{}, false
	}
	for _, route := range t.routes {
		if routepath.HasPrefix(path, route.Prefix) {
			return route.Gate, true
		}
	}
	return gate.Gate{}, false
}

// Targets returns the table-wide redirect targets.
func (t *Table) Targets() gate.Targets {
	if t == nil {
		return gate.DefaultTargets()
	}
	return t.targets
}

// Routes returns the routes, longest prefix first.
func (t *Table) Routes() []Route {
	if t == nil {
		return nil
	}
	return append([]Route(nil), t.routes...)
}
