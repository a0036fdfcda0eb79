package gate

import (
	"testing"

	"github.com/louisbranch/warehouse/internal/services/web/session"
)

func user(id string, role session.Role) *session.UserIdentity {
	return &session.UserIdentity{ID: id, Role: role}
}

var sampleUsers = []*session.UserIdentity{
	nil,
	user("u-admin", session.RoleAdmin),
	user("u-manager", session.RoleWarehouseManager),
	user("u-staff", session.RoleStaff),
	user("u-odd", "Admin"),
	user("u-blank", ""),
}

func protectedGate() Gate { return New(Authenticated(), DefaultTargets()) }

func adminGate() Gate { return New(AdminOrManager(), DefaultTargets()) }

func TestEvaluateLoadingIsAlwaysPending(t *testing.T) {
	t.Parallel()

	for _, g := range []Gate{protectedGate(), adminGate(), {}} {
		for _, u := range sampleUsers {
			got := g.Evaluate(session.Session{Loading: true, User: u})
			if got != Pending() {
				t.Fatalf("Evaluate(loading, %+v) = %v, want pending", u, got)
			}
		}
	}
}

func TestEvaluateAnonymousRedirectsToLogin(t *testing.T) {
	t.Parallel()

	for _, g := range []Gate{protectedGate(), adminGate()} {
		got := g.Evaluate(session.Anonymous())
		if got != Redirect("/auth/login") {
			t.Fatalf("Evaluate(anonymous) with %s = %v, want redirect(/auth/login)", g.Policy().Name, got)
		}
	}
}

func TestEvaluateAdminGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *session.UserIdentity
		want Outcome
	}{
		{name: "admin", user: user("u-1", session.RoleAdmin), want: Render()},
		{name: "warehouse manager", user: user("u-2", session.RoleWarehouseManager), want: Render()},
		{name: "staff", user: user("u-3", session.RoleStaff), want: Redirect("/dashboard")},
		{name: "capitalised role", user: user("u-4", "Admin"), want: Redirect("/dashboard")},
		{name: "unknown role", user: user("u-5", "superuser"), want: Redirect("/dashboard")},
		{name: "empty role", user: user("u-6", ""), want: Redirect("/dashboard")},
		{name: "empty id", user: user("", session.RoleAdmin), want: Redirect("/dashboard")},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := adminGate().Evaluate(session.Session{User: tc.user})
			if got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateProtectedGateRendersAnyRole(t *testing.T) {
	t.Parallel()

	for _, u := range sampleUsers[1:] {
		got := protectedGate().Evaluate(session.Session{User: u})
		if got != Render() {
			t.Fatalf("Evaluate(%+v) = %v, want render", u, got)
		}
	}
}

func TestEvaluateScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gate    Gate
		session session.Session
		want    Outcome
	}{
		{name: "A loading", gate: protectedGate(), session: session.Session{Loading: true}, want: Pending()},
		{name: "B anonymous protected", gate: protectedGate(), session: session.Session{}, want: Redirect("/auth/login")},
		{name: "C staff admin", gate: adminGate(), session: session.Session{User: user("u-s", session.RoleStaff)}, want: Redirect("/dashboard")},
		{name: "D admin admin", gate: adminGate(), session: session.Session{User: user("u-a", session.RoleAdmin)}, want: Render()},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.gate.Evaluate(tc.session); got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, g := range []Gate{protectedGate(), adminGate()} {
		for _, loading := range []bool{true, false} {
			for _, u := range sampleUsers {
				s := session.Session{Loading: loading, User: u}
				first := g.Evaluate(s)
				second := g.Evaluate(s)
				if first != second {
					t.Fatalf("Evaluate(%+v) not idempotent: %v then %v", s, first, second)
				}
			}
		}
	}
}

func TestEvaluateUsesPolicyUnauthorizedTarget(t *testing.T) {
	t.Parallel()

	g := New(RoleIn(session.RoleAdmin).WithUnauthorizedTarget("/admin/denied"), DefaultTargets())
	if got := g.Evaluate(session.Session{User: user("u", session.RoleWarehouseManager)}); got != Redirect("/admin/denied") {
		t.Fatalf("Evaluate() = %v, want redirect(/admin/denied)", got)
	}
	if got := g.Evaluate(session.Anonymous()); got != Redirect("/auth/login") {
		t.Fatalf("Evaluate(anonymous) = %v, want redirect(/auth/login)", got)
	}
}

func TestEvaluateCustomTargets(t *testing.T) {
	t.Parallel()

	g := New(AdminOrManager(), Targets{Unauthenticated: "/signin", Unauthorized: "/home"})
	if got := g.Evaluate(session.Anonymous()); got != Redirect("/signin") {
		t.Fatalf("Evaluate(anonymous) = %v, want redirect(/signin)", got)
	}
	if got := g.Evaluate(session.Session{User: user("u", session.RoleStaff)}); got != Redirect("/home") {
		t.Fatalf("Evaluate(staff) = %v, want redirect(/home)", got)
	}
}

func TestZeroGateDeniesEveryone(t *testing.T) {
	t.Parallel()

	var g Gate
	if got := g.Evaluate(session.Session{User: user("u", session.RoleAdmin)}); got != Redirect(DefaultUnauthorizedTarget) {
		t.Fatalf("Evaluate() = %v, want redirect(%s)", got, DefaultUnauthorizedTarget)
	}
	if got := g.Evaluate(session.Anonymous()); got != Redirect(DefaultUnauthenticatedTarget) {
		t.Fatalf("Evaluate(anonymous) = %v, want redirect(%s)", got, DefaultUnauthenticatedTarget)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := map[Outcome]string{
		Pending():              "pending",
		Render():               "render",
		Redirect("/dash"):      "redirect(/dash)",
		{Kind: OutcomeKind(9)}: "OutcomeKind(9)",
	}
	for outcome, want := range tests {
		if got := outcome.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}
