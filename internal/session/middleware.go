package session

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const ctxKey contextKey = "session"

// Middleware adds session data to the request context when present.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, err := m.GetSession(r.Context(), r); err == nil {
			r = r.WithContext(WithSession(r.Context(), session))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a valid session with a JSON 401.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		if session == nil {
			var err error
			session, err = m.GetSession(r.Context(), r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func WithSession(ctx context.Context, data *Data) context.Context {
	return context.WithValue(ctx, ctxKey, data)
}

// GetSessionFromContext retrieves session data from the request context.
func GetSessionFromContext(ctx context.Context) *Data {
	if ctx == nil {
		return nil
	}
	session, ok := ctx.Value(ctxKey).(*Data)
	if !ok {
		return nil
	}
	return session
}
