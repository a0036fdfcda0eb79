package modules

import (
	"net/http"
	"testing"

	"github.com/louisbranch/warehouse/internal/services/web/routetable"
	"github.com/louisbranch/warehouse/internal/services/web/session"
)

func testDependencies() Dependencies {
	return Dependencies{
		Routes:  routetable.Default(),
		Sources: func(*http.Request) session.Source { return session.Static(session.Anonymous()) },
	}
}

func TestDefaultModulesMountUniquePrefixes(t *testing.T) {
	t.Parallel()

	deps := testDependencies()
	seenIDs := map[string]bool{}
	seenPrefixes := map[string]bool{}
	all := append(DefaultPublicModules(deps), DefaultProtectedModules(deps)...)
	for _, m := range all {
		if seenIDs[m.ID()] {
			t.Fatalf("duplicate module id %q", m.ID())
		}
		seenIDs[m.ID()] = true

		mount, err := m.Mount()
		if err != nil {
			t.Fatalf("%s Mount() error = %v", m.ID(), err)
		}
		if seenPrefixes[mount.Prefix] {
			t.Fatalf("duplicate prefix %q", mount.Prefix)
		}
		seenPrefixes[mount.Prefix] = true
	}
}

func TestProtectedModulesAreGuardedByDefaultTable(t *testing.T) {
	t.Parallel()

	deps := testDependencies()
	table := routetable.Default()
	for _, m := range DefaultProtectedModules(deps) {
		mount, err := m.Mount()
		if err != nil {
			t.Fatalf("%s Mount() error = %v", m.ID(), err)
		}
		if _, ok := table.Match(mount.Prefix); !ok {
			t.Fatalf("protected module %q prefix %q is not in the default table", m.ID(), mount.Prefix)
		}
	}
	for _, m := range DefaultPublicModules(deps) {
		mount, err := m.Mount()
		if err != nil {
			t.Fatalf("%s Mount() error = %v", m.ID(), err)
		}
		if _, ok := table.Match(mount.Prefix); ok {
			t.Fatalf("public module %q prefix %q is guarded", m.ID(), mount.Prefix)
		}
	}
}
