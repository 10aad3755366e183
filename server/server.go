package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lunajoyas/catalogo/internal/config"
	"github.com/lunajoyas/catalogo/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.MetricsContext)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	// Public storefront API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", h.Catalog).Methods("GET").Name("api.catalog")
	api.HandleFunc("/catalog/export", h.ExportCatalog).Methods("GET").Name("api.catalog.export")
	api.HandleFunc("/products/{id}", h.Product).Methods("GET").Name("api.products.show")
	api.HandleFunc("/categories", h.Categories()).Methods("GET").Name("api.categories")
	api.HandleFunc("/tags", h.Tags()).Methods("GET").Name("api.tags")
	api.HandleFunc("/collections", h.Collections()).Methods("GET").Name("api.collections")
	api.HandleFunc("/shipping-options", h.ShippingOptions()).Methods("GET").Name("api.shipping_options")
	api.HandleFunc("/payment-methods", h.PaymentMethods()).Methods("GET").Name("api.payment_methods")
	api.HandleFunc("/promotion", h.Promotion).Methods("GET").Name("api.promotion")
	api.HandleFunc("/i18n/{locale}", h.Dictionary).Methods("GET").Name("api.i18n")

	// Admin sign-in, reachable without a session
	sessionRouter := r.Path("/admin/session").Subrouter()
	sessionRouter.Use(h.SessionMiddleware)
	sessionRouter.Use(h.RequireSameOrigin)
	sessionRouter.Methods("GET").HandlerFunc(h.CurrentSession).Name("admin.session.show")
	sessionRouter.Methods("POST").HandlerFunc(h.CreateSession).Name("admin.session.create")
	sessionRouter.Methods("DELETE").HandlerFunc(h.DeleteSession).Name("admin.session.delete")

	// Protected admin routes - require authentication
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(h.SessionMiddleware)
	adminRouter.Use(h.RequireAuth)
	adminRouter.Use(h.RequireSameOrigin)
	for _, res := range h.AdminResources() {
		base := "/" + res.Kind
		name := "admin." + strings.ReplaceAll(res.Kind, "-", "_")
		adminRouter.HandleFunc(base, res.List).Methods("GET").Name(name + ".list")
		adminRouter.HandleFunc(base, res.Create).Methods("POST").Name(name + ".create")
		adminRouter.HandleFunc(base+"/{id}", res.Get).Methods("GET").Name(name + ".show")
		adminRouter.HandleFunc(base+"/{id}", res.Update).Methods("PUT").Name(name + ".update")
		adminRouter.HandleFunc(base+"/{id}", res.Delete).Methods("DELETE").Name(name + ".delete")
	}
	adminRouter.HandleFunc("/settings/pricing", h.GetPricing).Methods("GET").Name("admin.settings.pricing.show")
	adminRouter.HandleFunc("/settings/pricing", h.PutPricing).Methods("PUT").Name("admin.settings.pricing.update")
	adminRouter.HandleFunc("/settings/discount", h.GetDiscount).Methods("GET").Name("admin.settings.discount.show")
	adminRouter.HandleFunc("/settings/discount", h.PutDiscount).Methods("PUT").Name("admin.settings.discount.update")
	adminRouter.HandleFunc("/uploads", h.Upload).Methods("POST").Name("admin.uploads.create")
	adminRouter.HandleFunc("/uploads", h.DeleteUpload).Methods("DELETE").Name("admin.uploads.delete")
	adminRouter.HandleFunc("/import", h.Import).Methods("POST").Name("admin.import")
	adminRouter.HandleFunc("/catalog/export", h.AdminExport).Methods("POST").Name("admin.catalog.export")

	return r
}
