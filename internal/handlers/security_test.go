package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunajoyas/catalogo/internal/config"
)

func TestRequireSameOrigin(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{BaseURL: "https://api.lunajoyas.com", SiteURL: "lunajoyas.com"}
	tests := []struct {
		name    string
		method  string
		host    string
		origin  string
		referer string
		want    int
	}{
		{name: "request host origin", method: http.MethodPost, origin: "https://admin.internal:8443", host: "admin.internal:8443", want: http.StatusNoContent},
		{name: "base url origin", method: http.MethodPost, origin: "https://api.lunajoyas.com", want: http.StatusNoContent},
		{name: "storefront origin from bare site url", method: http.MethodPut, origin: "https://lunajoyas.com", want: http.StatusNoContent},
		{name: "storefront referer", method: http.MethodDelete, referer: "https://lunajoyas.com/admin/products", want: http.StatusNoContent},
		{name: "missing origin and referer", method: http.MethodPut, want: http.StatusForbidden},
		{name: "cross origin", method: http.MethodPost, origin: "https://attacker.example", want: http.StatusForbidden},
		{name: "lookalike subdomain", method: http.MethodPost, origin: "https://lunajoyas.com.attacker.example", want: http.StatusForbidden},
		{name: "cross referer with good origin", method: http.MethodPost, origin: "https://lunajoyas.com", referer: "https://attacker.example/x", want: http.StatusForbidden},
		{name: "origin without host", method: http.MethodPost, origin: "null", want: http.StatusForbidden},
		{name: "read only method", method: http.MethodGet, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &Handlers{config: cfg}
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(tt.method, "/admin/products", nil)
			req.Host = "api.lunajoyas.com"
			if tt.host != "" {
				req.Host = tt.host
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()

			h.RequireSameOrigin(next).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestConfiguredHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "lunajoyas.com", want: "lunajoyas.com"},
		{raw: "https://Tienda.LunaJoyas.com/catalogo", want: "tienda.lunajoyas.com"},
		{raw: "http://localhost:8080", want: "localhost"},
		{raw: "  ", want: ""},
	}
	for _, tt := range tests {
		if got := configuredHost(tt.raw); got != tt.want {
			t.Errorf("configuredHost(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	tests := []struct {
		path      string
		wantCache string
		wantRobot string
	}{
		{path: "/admin/products", wantCache: "no-store", wantRobot: "noindex"},
		{path: "/api/catalog"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Fatalf("%s X-Frame-Options = %q", tt.path, got)
		}
		if got := rec.Header().Get("Cache-Control"); got != tt.wantCache {
			t.Fatalf("%s Cache-Control = %q, want %q", tt.path, got, tt.wantCache)
		}
		if got := rec.Header().Get("X-Robots-Tag"); got != tt.wantRobot {
			t.Fatalf("%s X-Robots-Tag = %q, want %q", tt.path, got, tt.wantRobot)
		}
	}
}
