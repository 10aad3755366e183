package handlers

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lunajoyas/catalogo/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder remembers the status and body size for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Flush lets PDF downloads stream through the recorder.
func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// RequestLogger tags every request with an id, stores a request logger in
// the context and writes one access log line per request.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		route := routeLabel(r)
		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_ip", clientIP(r),
		}
		if route != "" {
			attrs = append(attrs, "route", route)
		}
		if locale := r.URL.Query().Get("locale"); locale != "" {
			attrs = append(attrs, "locale", locale)
		}
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			attrs = append(attrs, "user_agent", ua)
		}
		logger := h.logger.With(attrs...)

		ctx := logging.WithLogger(r.Context(), logger)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.code()
		elapsed := time.Since(start)
		recordRequestMetrics(r, route, status, elapsed)

		level, msg := slog.LevelInfo, "request completed"
		switch {
		case r.URL.Path == "/health":
			level, msg = slog.LevelDebug, "health check completed"
		case status >= http.StatusInternalServerError:
			level, msg = slog.LevelError, "request failed"
		case status >= http.StatusBadRequest:
			level, msg = slog.LevelWarn, "request rejected"
		}
		logger.Log(ctx, level, msg,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", rec.size,
		)
	})
}

func recordRequestMetrics(r *http.Request, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unknown"
	}
	ctx := r.Context()
	meter := sentry.NewMeter(ctx).WithCtx(ctx)
	base := []attribute.Builder{
		attribute.String("http.method", r.Method),
		attribute.String("http.route", route),
	}
	counted := append(base, attribute.Int("http.status_code", status))

	meter.Count("http.server.requests", 1, sentry.WithAttributes(counted...))
	meter.Distribution("http.server.duration", float64(elapsed.Milliseconds()),
		sentry.WithUnit(sentry.UnitMillisecond),
		sentry.WithAttributes(append(base, attribute.String("http.status_class", fmt.Sprintf("%dxx", status/100)))...),
	)
	if status >= http.StatusInternalServerError {
		meter.Count("http.server.errors", 1, sentry.WithAttributes(counted...))
	}
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
func clientIP(r *http.Request) string {
	if forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(forwarded) != "" {
		return strings.TrimSpace(forwarded)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// routeLabel names the matched mux route, falling back to its template.
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	if name := route.GetName(); name != "" {
		return name
	}
	template, _ := route.GetPathTemplate()
	return template
}
