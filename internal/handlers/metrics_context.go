package handlers

import (
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/lunajoyas/catalogo/internal/observability"
)

// MetricsContext adds a request-scoped, pre-attributed meter to the context.
func (h *Handlers) MetricsContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		// RequestLogger runs first and echoes the id on the response.
		requestID := w.Header().Get(requestIDHeader)
		if requestID == "" {
			requestID = strings.TrimSpace(r.Header.Get(requestIDHeader))
		}

		attrs := []attribute.Builder{
			attribute.String("http.request_id", requestID),
			attribute.String("http.method", r.Method),
			attribute.String("network.client.ip", clientIP(r)),
		}
		if route := routeLabel(r); route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, attribute.String("http.user_agent", userAgent))
		}
		if referer := strings.TrimSpace(r.Referer()); referer != "" {
			attrs = append(attrs, attribute.String("http.referer", referer))
		}
		if r.ContentLength >= 0 {
			attrs = append(attrs, attribute.Int64("http.request_content_length", r.ContentLength))
		}

		if sess := h.sessionFromRequest(ctx, r); sess != nil {
			if sess.UID != "" {
				attrs = append(attrs, attribute.String("user.id", sess.UID))
			}
			if email := strings.TrimSpace(sess.Email); email != "" {
				attrs = append(attrs, attribute.String("user.email", email))
			}
		}
		if h.translator != nil {
			attrs = append(attrs, attribute.String("catalog.locale", h.locale(r)))
		}

		meter := sentry.NewMeter(ctx).WithCtx(ctx)
		meter.SetAttributes(attrs...)

		ctx = observability.WithMeter(ctx, meter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
