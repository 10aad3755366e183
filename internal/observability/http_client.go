package observability

import (
	"net/http"
	"time"

	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

// UserAgent identifies outbound requests to image hosts and key servers.
const UserAgent = "catalogo/1.0 (+https://lunajoyas.com)"

// Trace headers go only to hosts we own an integration with: the image CDN
// and Google's token key endpoint.
var tracePropagationTargets = []string{
	"res.cloudinary.com",
	"api.cloudinary.com",
	"www.googleapis.com",
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(clone)
}

// NewHTTPClient returns a client that records sentry spans for outbound
// calls and sends the catalog user agent. A zero timeout means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := sentryhttpclient.NewSentryRoundTripper(
		userAgentTransport{base: http.DefaultTransport},
		sentryhttpclient.WithTracePropagationTargets(tracePropagationTargets),
	)
	return &http.Client{Transport: transport, Timeout: max(timeout, 0)}
}
