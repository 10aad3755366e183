package handlers

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/lunajoyas/catalogo/internal/config"
	"github.com/lunajoyas/catalogo/internal/observability"
)

var baselineHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
}

// SecurityHeaders sets the baseline headers. Admin responses are never
// cached or indexed.
func (h *Handlers) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range baselineHeaders {
			headers.Set(kv[0], kv[1])
		}
		if strings.HasPrefix(r.URL.Path, "/admin") {
			headers.Set("Cache-Control", "no-store")
			headers.Set("X-Robots-Tag", "noindex")
			headers.Set("Cross-Origin-Resource-Policy", "same-origin")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSameOrigin rejects admin writes whose Origin or Referer points
// outside the API host, BASE_URL or the storefront at SITE_URL. A write
// must carry at least one of the two headers.
func (h *Handlers) RequireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestMutatesState(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		meter := observability.MeterFromContext(ctx)
		meter.SetAttributes(attribute.String("component", "security.same_origin"))
		meter.Count("security.same_origin.checked", 1)

		reject := func(reason string, args ...any) {
			meter.Count("security.same_origin.blocked", 1, sentry.WithAttributes(attribute.String("reason", reason)))
			h.loggerFromContext(ctx).Warn("blocked cross-origin admin write",
				append([]any{"reason", reason, "method", r.Method, "path", r.URL.Path}, args...)...)
			http.Error(w, "Forbidden", http.StatusForbidden)
		}

		trusted := trustedHosts(h.config, r)
		seen := false
		for _, name := range []string{"Origin", "Referer"} {
			value := strings.TrimSpace(r.Header.Get(name))
			if value == "" {
				continue
			}
			seen = true
			host, err := headerHost(value)
			if err != nil {
				reject("invalid_"+strings.ToLower(name), "header", value, "error", err)
				return
			}
			if _, ok := trusted[host]; !ok {
				reject("foreign_"+strings.ToLower(name), "header", value)
				return
			}
		}
		if !seen {
			reject("missing_origin_and_referer")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestMutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func headerHost(value string) (string, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errors.New("missing host")
	}
	return host, nil
}

// trustedHosts lists the hosts admin writes may come from: the host the
// request was sent to, BASE_URL, and the storefront at SITE_URL.
func trustedHosts(cfg *config.Config, r *http.Request) map[string]struct{} {
	hosts := make(map[string]struct{}, 3)
	add := func(host string) {
		if host != "" {
			hosts[host] = struct{}{}
		}
	}
	if r != nil {
		host := strings.TrimSpace(r.Host)
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		add(strings.ToLower(host))
	}
	if cfg != nil {
		add(configuredHost(cfg.BaseURL))
		add(configuredHost(cfg.SiteURL))
	}
	return hosts
}

// configuredHost accepts a full URL or a bare host such as
// "lunajoyas.com", as SITE_URL is usually written.
func configuredHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	host, err := headerHost(raw)
	if err != nil {
		return ""
	}
	return host
}
