package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/warehouse/internal/services/web/platform/flash"
	"github.com/louisbranch/warehouse/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/warehouse/internal/services/web/routepath"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"golang.org/x/net/websocket"
)

var testUsers = map[string]session.UserIdentity{
	"tok-admin":   {ID: "u-1", Email: "ada@example.test", DisplayName: "Ada", Role: session.RoleAdmin},
	"tok-manager": {ID: "u-2", Email: "max@example.test", Role: session.RoleWarehouseManager},
	"tok-staff":   {ID: "u-3", Email: "sam@example.test", DisplayName: "Sam", Role: session.RoleStaff},
}

func staticResolver() session.IdentityResolver {
	return session.ResolverFunc(func(_ context.Context, token string) (session.UserIdentity, error) {
		user, ok := testUsers[token]
		if !ok {
			return session.UserIdentity{}, session.ErrUnauthenticated
		}
		return user, nil
	})
}

func newTestHandler(t *testing.T, resolver session.IdentityResolver, settle time.Duration) http.Handler {
	t.Helper()
	provider := session.NewProvider(session.ProviderConfig{
		Resolver:      resolver,
		SettleTimeout: settle,
	})
	t.Cleanup(provider.Close)
	h, err := NewHandler(Config{Sessions: provider})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func get(h http.Handler, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: token})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGatedRoutes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, staticResolver(), 2*time.Second)

	tests := []struct {
		name         string
		path         string
		token        string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{name: "anonymous dashboard", path: "/dashboard", wantStatus: http.StatusFound, wantLocation: "/auth/login"},
		{name: "anonymous admin", path: "/admin/users", wantStatus: http.StatusFound, wantLocation: "/auth/login"},
		{name: "unknown token", path: "/dashboard", token: "tok-nobody", wantStatus: http.StatusFound, wantLocation: "/auth/login"},
		{name: "staff dashboard", path: "/dashboard", token: "tok-staff", wantStatus: http.StatusOK, wantBody: "Welcome back, Sam."},
		{name: "staff admin denied", path: "/admin/locations", token: "tok-staff", wantStatus: http.StatusFound, wantLocation: "/dashboard"},
		{name: "manager admin", path: "/admin/users", token: "tok-manager", wantStatus: http.StatusOK, wantBody: "<strong>Users</strong>"},
		{name: "admin index", path: "/admin", token: "tok-admin", wantStatus: http.StatusFound, wantLocation: "/admin/locations"},
		{name: "public landing", path: "/", wantStatus: http.StatusOK, wantBody: "Warehouse operations"},
		{name: "health", path: "/up", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "static script", path: "/static/gate.js", wantStatus: http.StatusOK, wantBody: "WebSocket"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rr := get(h, tc.path, tc.token)
			if rr.Code != tc.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tc.path, rr.Code, tc.wantStatus)
			}
			if got := rr.Header().Get("Location"); got != tc.wantLocation {
				t.Fatalf("Location = %q, want %q", got, tc.wantLocation)
			}
			if tc.wantBody != "" && !strings.Contains(rr.Body.String(), tc.wantBody) {
				t.Fatalf("body missing %q: %s", tc.wantBody, rr.Body.String())
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Fatal("X-Request-ID header is empty")
			}
		})
	}
}

func TestDeniedUserGetsNotice(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, staticResolver(), 2*time.Second)

	rr := get(h, "/admin/locations", "tok-staff")
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusFound)
	}
	var notice *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == flash.CookieName {
			notice = c
		}
	}
	if notice == nil {
		t.Fatal("denied redirect did not set a flash notice")
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "tok-staff"})
	req.AddCookie(notice)
	next := httptest.NewRecorder()
	h.ServeHTTP(next, req)
	if !strings.Contains(next.Body.String(), "You do not have access to that page.") {
		t.Fatalf("dashboard body missing notice: %s", next.Body.String())
	}

	anon := get(h, "/admin/locations", "")
	for _, c := range anon.Result().Cookies() {
		if c.Name == flash.CookieName {
			t.Fatal("anonymous redirect set a flash notice")
		}
	}
}

func TestAdminLinkFollowsRole(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, staticResolver(), 2*time.Second)

	if body := get(h, "/dashboard", "tok-admin").Body.String(); !strings.Contains(body, `href="/admin/locations"`) {
		t.Fatalf("admin dashboard missing admin link: %s", body)
	}
	if body := get(h, "/dashboard", "tok-staff").Body.String(); strings.Contains(body, `href="/admin/locations"`) {
		t.Fatalf("staff dashboard shows admin link: %s", body)
	}
}

func TestPendingSessionServesLoadingThenStreamsOutcome(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	resolver := session.ResolverFunc(func(ctx context.Context, token string) (session.UserIdentity, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return session.UserIdentity{}, ctx.Err()
		}
		return testUsers[token], nil
	})
	provider := session.NewProvider(session.ProviderConfig{Resolver: resolver, ResolveTimeout: 5 * time.Second})
	t.Cleanup(provider.Close)
	h, err := NewHandler(Config{Sessions: provider})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	rr := get(h, "/admin/users", "tok-manager")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q, want no-store", got)
	}
	watchURL := routepath.SessionWatchFor("/admin/users")
	if body := rr.Body.String(); !strings.Contains(body, `data-gate-watch="`+watchURL+`"`) {
		t.Fatalf("loading page missing watch url %q: %s", watchURL, body)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + watchURL
	cfg, err := websocket.NewConfig(wsURL, srv.URL)
	if err != nil {
		t.Fatalf("websocket.NewConfig() error = %v", err)
	}
	cfg.Header = make(http.Header)
	cfg.Header.Set("Cookie", sessioncookie.Name+"=tok-manager")
	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	readFrame := func() map[string]string {
		t.Helper()
		_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
		var frame map[string]string
		if err := json.NewDecoder(conn).Decode(&frame); err != nil {
			t.Fatalf("decode server frame: %v", err)
		}
		return frame
	}
	if got := readFrame(); got["kind"] != "pending" {
		t.Fatalf("first frame = %v, want pending", got)
	}
	close(release)
	if got := readFrame(); got["kind"] != "render" {
		t.Fatalf("second frame = %v, want render", got)
	}
}

func TestNewServerRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(context.Background(), Config{}); err == nil {
		t.Fatal("NewServer() with empty address returned nil error")
	}
	srv, err := NewServer(context.Background(), Config{HTTPAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	srv.Close()
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(context.Background(), Config{HTTPAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
