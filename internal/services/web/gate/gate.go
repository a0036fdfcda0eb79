// Package gate decides whether a request may see protected content.
//
// A Gate pairs a Policy with redirect Targets. Evaluate is a pure function of
// the session it is given; Watch re-evaluates whenever a session Source
// changes; Guard adapts the decision to HTTP.
package gate

import (
	"strings"

	"github.com/louisbranch/warehouse/internal/services/web/session"
)

// Default redirect targets.
const (
	DefaultUnauthenticatedTarget = "/auth/login"
	DefaultUnauthorizedTarget    = "/dashboard"
)

// Targets are the redirect destinations for denied sessions. Unauthenticated
// is used when there is no user; Unauthorized when a user fails the policy.
type Targets struct {
	Unauthenticated string `yaml:"unauthenticated"`
	Unauthorized    string `yaml:"unauthorized"`
}

// DefaultTargets returns the built-in redirect targets.
func DefaultTargets() Targets {
	return Targets{
		Unauthenticated: DefaultUnauthenticatedTarget,
		Unauthorized:    DefaultUnauthorizedTarget,
	}
}

func (t Targets) withDefaults() Targets {
	t.Unauthenticated = strings.TrimSpace(t.Unauthenticated)
	t.Unauthorized = strings.TrimSpace(t.Unauthorized)
	if t.Unauthenticated == "" {
		t.Unauthenticated = DefaultUnauthenticatedTarget
	}
	if t.Unauthorized == "" {
		t.Unauthorized = DefaultUnauthorizedTarget
	}
	return t
}

// Gate evaluates sessions against one policy. The zero Gate denies everyone
// and redirects to the default targets.
type Gate struct {
	policy  Policy
	targets Targets
}

// New builds a gate. Empty targets fall back to the defaults.
func New(policy Policy, targets Targets) Gate {
	return Gate{policy: policy, targets: targets.withDefaults()}
}

// Policy returns the gate's policy.
func (g Gate) Policy() Policy { return g.policy }

// Targets returns the gate's redirect targets.
func (g Gate) Targets() Targets { return g.targets.withDefaults() }

// Evaluate decides the outcome for s.
func (g Gate) Evaluate(s session.Session) Outcome {
	if s.Loading {
		return Pending()
	}
	if g.policy.Allows(s.User) {
		return Render()
	}
	targets := g.targets.withDefaults()
	if s.User == nil {
		return Redirect(targets.Unauthenticated)
	}
	if g.policy.UnauthorizedTarget != "" {
		return Redirect(g.policy.UnauthorizedTarget)
	}
	return Redirect(targets.Unauthorized)
}
