// Package session keeps admin sign-ins behind an opaque cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	cookieName = "catalogo_admin"
	ttl        = 12 * time.Hour
)

var ErrNoSession = errors.New("no active session")

// Data is what an admin session remembers about the signed-in user.
type Data struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Manager handles session creation, validation, and storage
type Manager struct {
	store  Store
	secure bool
	now    func() time.Time
}

// Store persists session data by opaque id.
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Close() error
}

func NewManager(store Store, secure bool) *Manager {
	return &Manager{
		store:  store,
		secure: secure,
		now:    time.Now,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// CreateSession stores data under a fresh id and sets the cookie.
func (m *Manager) CreateSession(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	if data == nil {
		return "", fmt.Errorf("session data is required")
	}

	sessionID := uuid.NewString()
	sessionData := cloneData(data)
	sessionData.CreatedAt = m.now().Unix()
	if err := m.store.Set(ctx, sessionID, sessionData, ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	http.SetCookie(w, m.cookie(sessionID, int(ttl.Seconds())))
	return sessionID, nil
}

// GetSession returns the session named by the request cookie.
func (m *Manager) GetSession(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	data, ok := m.store.Get(ctx, cookie.Value)
	if !ok {
		return nil, ErrNoSession
	}

	if m.now().Unix()-data.CreatedAt > int64(ttl.Seconds()) {
		m.store.Delete(ctx, cookie.Value)
		return nil, fmt.Errorf("%w: expired", ErrNoSession)
	}

	return data, nil
}

// DestroySession removes the session and clears the cookie
func (m *Manager) DestroySession(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil {
		m.store.Delete(ctx, cookie.Value)
	}
	http.SetCookie(w, m.cookie("", -1))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	return &cloned
}
