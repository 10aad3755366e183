package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		agent     string
		wantAgent string
	}{
		{name: "default user agent", wantAgent: UserAgent},
		{name: "caller user agent kept", agent: "catalogctl", wantAgent: "catalogctl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			agents := make(chan string, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				agents <- r.UserAgent()
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			client := NewHTTPClient(5 * time.Second)
			if client.Timeout != 5*time.Second {
				t.Fatalf("Timeout = %v", client.Timeout)
			}
			req, err := http.NewRequest(http.MethodGet, server.URL, nil)
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			_ = resp.Body.Close()
			if got := <-agents; got != tt.wantAgent {
				t.Fatalf("User-Agent = %q, want %q", got, tt.wantAgent)
			}
		})
	}

	if got := NewHTTPClient(-time.Second).Timeout; got != 0 {
		t.Fatalf("negative timeout = %v, want 0", got)
	}
}
