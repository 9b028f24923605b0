package server

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantHSTS   bool
	}{
		{"development", false, false},
		{"production", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, func(d *Deps) { d.Production = tt.production })
			w := e.do(t, http.MethodGet, "/api/v1/quizzes", nil, "")

			h := w.Header()
			if got := h.Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", got)
			}
			if got := h.Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("X-Frame-Options = %q", got)
			}
			if h.Get("Content-Security-Policy") == "" {
				t.Error("missing Content-Security-Policy")
			}
			if got := h.Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS present = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/quizzes", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, req)
		return w
	}

	w := preflight("http://localhost:5173")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allowed origin: Access-Control-Allow-Origin = %q", got)
	}

	w = preflight("https://evil.example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("denied origin: Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) { d.AllowedOrigins = nil })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quizzes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v, want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	if got := clientKey(req); got != "203.0.113.7" {
		t.Errorf("clientKey = %q", got)
	}

	req.RemoteAddr = "203.0.113.7"
	if got := clientKey(req); got != "203.0.113.7" {
		t.Errorf("clientKey without port = %q", got)
	}
}

func TestResolveClient(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	tests := []struct {
		name   string
		remote string
		xff    []string
		want   string
	}{
		{"untrusted peer ignores header", "198.51.100.9:4000", []string{"10.0.0.5"}, "198.51.100.9"},
		{"trusted peer without header", "10.0.0.1:4000", nil, "10.0.0.1"},
		{"trusted peer", "10.0.0.1:4000", []string{"203.0.113.5"}, "203.0.113.5"},
		{"skips trusted hops", "10.0.0.1:4000", []string{"192.0.2.1, 203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"multiple header lines", "10.0.0.1:4000", []string{"192.0.2.1", "203.0.113.5"}, "203.0.113.5"},
		{"all hops trusted", "10.0.0.1:4000", []string{"10.0.0.3, 10.0.0.2"}, "10.0.0.3"},
		{"garbage hop stops the walk", "10.0.0.1:4000", []string{"203.0.113.5, nonsense"}, "10.0.0.1"},
		{"ipv6 loopback proxy", "[::1]:4000", []string{"2001:db8::7"}, "2001:db8::7"},
		{"mapped ipv4 hop", "10.0.0.1:4000", []string{"::ffff:203.0.113.5"}, "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := resolveClient(req, trusted); got != tt.want {
				t.Errorf("resolveClient = %q, want %q", got, tt.want)
			}
		})
	}
}
