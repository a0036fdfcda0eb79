package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/session"
)

func TestDashboardGreetsViewer(t *testing.T) {
	t.Parallel()

	m, err := New(pagerender.Renderer{}).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if m.Prefix != "/dashboard/" {
		t.Fatalf("Prefix = %q, want /dashboard/", m.Prefix)
	}

	for _, path := range []string{"/dashboard", "/dashboard/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req = req.WithContext(session.WithIdentity(req.Context(), session.UserIdentity{
			ID: "u-2", Email: "sam@example.test", Role: session.RoleStaff,
		}))
		rr := httptest.NewRecorder()
		m.Handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, rr.Code, http.StatusOK)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "Welcome back, sam@example.test.") {
			t.Fatalf("GET %s body missing greeting: %s", path, body)
		}
		if !strings.Contains(body, "Signed in as staff.") {
			t.Fatalf("GET %s body missing role: %s", path, body)
		}
	}
}

func TestDashboardUnknownSubpathIsNotFound(t *testing.T) {
	t.Parallel()

	m, err := New(pagerender.Renderer{}).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	rr := httptest.NewRecorder()
	m.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
