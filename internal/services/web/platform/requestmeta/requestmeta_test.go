package requestmeta

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRequest(target string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestHasSameOriginProof(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    *http.Request
		policy SchemePolicy
		want   bool
	}{
		{
			name: "origin same host and scheme",
			req:  newRequest("https://wms.example.test/admin/users", map[string]string{"Origin": "https://wms.example.test"}),
			want: true,
		},
		{
			name: "referer fallback",
			req:  newRequest("https://wms.example.test/logout", map[string]string{"Referer": "https://wms.example.test/dashboard"}),
			want: true,
		},
		{
			name: "explicit default port matches",
			req:  newRequest("http://wms.example.test/admin", map[string]string{"Origin": "http://wms.example.test:80"}),
			want: true,
		},
		{
			name: "cross host",
			req:  newRequest("https://wms.example.test/admin", map[string]string{"Origin": "https://evil.example.test"}),
			want: false,
		},
		{
			name: "scheme mismatch",
			req:  newRequest("https://wms.example.test/admin", map[string]string{"Origin": "http://wms.example.test"}),
			want: false,
		},
		{
			name: "port mismatch",
			req:  newRequest("http://wms.example.test:8080/admin", map[string]string{"Origin": "http://wms.example.test:9090"}),
			want: false,
		},
		{
			name: "no proof headers",
			req:  newRequest("https://wms.example.test/admin", nil),
			want: false,
		},
		{
			name: "opaque origin",
			req:  newRequest("https://wms.example.test/admin", map[string]string{"Origin": "null"}),
			want: false,
		},
		{
			name:   "untrusted forwarded proto is ignored",
			req:    newRequest("https://wms.example.test/admin", map[string]string{"Origin": "http://wms.example.test", "X-Forwarded-Proto": "http"}),
			policy: SchemePolicy{},
			want:   false,
		},
		{
			name:   "trusted forwarded proto is used",
			req:    newRequest("https://wms.example.test/admin", map[string]string{"Origin": "http://wms.example.test", "X-Forwarded-Proto": "http"}),
			policy: SchemePolicy{TrustForwardedProto: true},
			want:   true,
		},
		{
			name: "nil request",
			req:  nil,
			want: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasSameOriginProof(tc.req, tc.policy); got != tc.want {
				t.Fatalf("HasSameOriginProof() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsHTTPS(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsHTTPS(plain, SchemePolicy{}) {
		t.Fatal("plain request reported as https")
	}

	withTLS := httptest.NewRequest(http.MethodGet, "/", nil)
	withTLS.TLS = &tls.ConnectionState{}
	if !IsHTTPS(withTLS, SchemePolicy{}) {
		t.Fatal("tls request not reported as https")
	}

	forwarded := httptest.NewRequest(http.MethodGet, "/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "HTTPS")
	if IsHTTPS(forwarded, SchemePolicy{}) {
		t.Fatal("forwarded proto trusted without policy")
	}
	if !IsHTTPS(forwarded, SchemePolicy{TrustForwardedProto: true}) {
		t.Fatal("forwarded proto ignored with policy")
	}
	if IsHTTPS(nil, SchemePolicy{}) {
		t.Fatal("nil request reported as https")
	}
}
