package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lunajoyas/catalogo/internal/auth"
	"github.com/lunajoyas/catalogo/internal/config"
	"github.com/lunajoyas/catalogo/internal/i18n"
	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/media"
	"github.com/lunajoyas/catalogo/internal/services"
	"github.com/lunajoyas/catalogo/internal/session"
)

// TokenVerifier checks an ID token and returns the admin it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// Handlers provides HTTP request handlers for the storefront API and the
// admin panel.
type Handlers struct {
	config         *config.Config
	translator     *i18n.Translator
	storefront     *services.StorefrontService
	catalog        *services.CatalogService
	exports        *services.ExportService
	sessionManager *session.Manager
	verifier       TokenVerifier
	uploader       media.Uploader
	healthCheck    func(ctx context.Context) error
	logger         *slog.Logger
}

type Dependencies struct {
	Config         *config.Config
	Translator     *i18n.Translator
	Storefront     *services.StorefrontService
	Catalog        *services.CatalogService
	Exports        *services.ExportService
	SessionManager *session.Manager
	// Verifier and Uploader are optional; their endpoints answer 503
	// when unset.
	Verifier    TokenVerifier
	Uploader    media.Uploader
	HealthCheck func(ctx context.Context) error
	Logger      *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("handlers dependencies: translator is required")
	}
	if deps.Storefront == nil {
		return nil, fmt.Errorf("handlers dependencies: storefront is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("handlers dependencies: catalog is required")
	}
	if deps.Exports == nil {
		return nil, fmt.Errorf("handlers dependencies: exports is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}

	return &Handlers{
		config:         deps.Config,
		translator:     deps.Translator,
		storefront:     deps.Storefront,
		catalog:        deps.Catalog,
		exports:        deps.Exports,
		sessionManager: deps.SessionManager,
		verifier:       deps.Verifier,
		uploader:       deps.Uploader,
		healthCheck:    deps.HealthCheck,
		logger:         logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if h.healthCheck != nil {
		if err := h.healthCheck(ctx); err != nil {
			logger.Error("store health check failed", "error", err)
			http.Error(w, "Store unhealthy", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

// SessionMiddleware adds session data to the request context
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return h.sessionManager.Middleware(next)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// locale picks the response language from ?locale= or Accept-Language.
func (h *Handlers) locale(r *http.Request) string {
	return h.translator.Negotiate(r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))
}

func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		if parsed, err := url.Parse(baseURL); err == nil {
			return strings.EqualFold(parsed.Scheme, "https")
		}
	}

	return cfg.Port == "443" || cfg.Port == "8443"
}
