package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunajoyas/catalogo/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		requestID string
		status    int
		wantLevel string
		wantMsg   string
	}{
		{name: "success", path: "/api/catalog", status: http.StatusOK, wantLevel: "INFO", wantMsg: "request completed"},
		{name: "client error", path: "/api/products/nope", status: http.StatusNotFound, wantLevel: "WARN", wantMsg: "request rejected"},
		{name: "server error", path: "/api/catalog/export", status: http.StatusInternalServerError, wantLevel: "ERROR", wantMsg: "request failed"},
		{name: "health", path: "/health", status: http.StatusOK, wantLevel: "DEBUG", wantMsg: "health check completed"},
		{name: "caller request id kept", path: "/api/tags", requestID: "req-42", status: http.StatusOK, wantLevel: "INFO", wantMsg: "request completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			h := &Handlers{logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

			var handlerSawLogger bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerSawLogger = logging.FromContext(r.Context(), nil) != nil
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			req := httptest.NewRequest(http.MethodGet, tt.path+"?locale=en", nil)
			if tt.requestID != "" {
				req.Header.Set(requestIDHeader, tt.requestID)
			}
			rec := httptest.NewRecorder()
			h.RequestLogger(next).ServeHTTP(rec, req)

			if !handlerSawLogger {
				t.Fatal("expected a request logger in context")
			}
			gotID := rec.Header().Get(requestIDHeader)
			if gotID == "" || (tt.requestID != "" && gotID != tt.requestID) {
				t.Fatalf("X-Request-ID = %q, want %q", gotID, tt.requestID)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel || entry["msg"] != tt.wantMsg {
				t.Fatalf("log = %v, want %s %q", entry, tt.wantLevel, tt.wantMsg)
			}
			if entry["status"] != float64(tt.status) || entry["bytes"] != float64(2) {
				t.Fatalf("log status/bytes = %v/%v", entry["status"], entry["bytes"])
			}
			if entry["request_id"] != gotID || entry["locale"] != "en" {
				t.Fatalf("log attrs = %v", entry)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		forwarded string
		realIP    string
		want      string
	}{
		{name: "first forwarded hop", forwarded: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "real ip header", realIP: "198.51.100.4", want: "198.51.100.4"},
		{name: "remote addr", want: "192.0.2.1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		if tt.realIP != "" {
			req.Header.Set("X-Real-Ip", tt.realIP)
		}
		if got := clientIP(req); got != tt.want {
			t.Errorf("%s: clientIP() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
