package handlers

import (
	"context"
	"net/http"

	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/session"
)

// RequireAuth rejects requests without an admin session. Accepted requests
// log with the admin's email attached.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return h.sessionManager.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sess := session.GetSessionFromContext(ctx); sess != nil {
			ctx = logging.With(ctx, h.logger, "admin", sess.Email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// sessionFromRequest prefers the session loaded by the middleware and
// falls back to the cookie for routes outside it.
func (h *Handlers) sessionFromRequest(ctx context.Context, r *http.Request) *session.Data {
	if sess := session.GetSessionFromContext(ctx); sess != nil {
		return sess
	}
	if h.sessionManager == nil || r == nil {
		return nil
	}
	sess, err := h.sessionManager.GetSession(ctx, r)
	if err != nil {
		return nil
	}
	return sess
}
