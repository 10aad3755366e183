package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunajoyas/catalogo/internal/auth"
	"github.com/lunajoyas/catalogo/internal/cache"
	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/config"
	"github.com/lunajoyas/catalogo/internal/docstore"
	"github.com/lunajoyas/catalogo/internal/export"
	"github.com/lunajoyas/catalogo/internal/handlers"
	"github.com/lunajoyas/catalogo/internal/i18n"
	"github.com/lunajoyas/catalogo/internal/imagefetch"
	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/media"
	"github.com/lunajoyas/catalogo/internal/observability"
	"github.com/lunajoyas/catalogo/internal/repository"
	"github.com/lunajoyas/catalogo/internal/services"
	"github.com/lunajoyas/catalogo/internal/session"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	Store          docstore.Store
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Catalog        *services.CatalogService
	Storefront     *services.StorefrontService
	Exports        *services.ExportService
	Handlers       *handlers.Handlers

	closeLog    func() error
	flushSentry func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, closeLog: closeLog}

	flushSentry, err := observability.InitSentry(observability.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     "catalogo@" + Version,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.flushSentry = flushSentry

	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg, logger := a.Config, a.Logger

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	store, err := docstore.NewStore(startupCtx, docstore.Config{
		Provider:        cfg.StoreProvider,
		ProjectID:       cfg.FirestoreProjectID,
		CredentialsJSON: cfg.GoogleCredentials,
		DatabaseURL:     cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	a.Store = store

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize cache provider: %w", err)
	}
	a.CacheProvider = cacheProvider

	sessionStore, err := session.NewStore(startupCtx, session.Config{
		Provider:              cfg.SessionStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	a.SessionManager = session.NewManager(sessionStore, handlers.SecureCookiesFromConfig(cfg))

	translator, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	repos := repository.New(store)
	pricer := catalog.NewPricer()

	a.Catalog = services.NewCatalogService(repos, catalog.NewValidator(), catalog.NewParser(), cacheProvider, logger)
	a.Storefront, err = services.NewStorefrontService(services.StorefrontOptions{
		Repositories:    repos,
		Cache:           cacheProvider,
		CacheTTL:        cfg.CatalogCacheTTL,
		Pricer:          pricer,
		Translator:      translator,
		WhatsAppNumber:  cfg.WhatsAppNumber,
		InstagramHandle: cfg.InstagramHandle,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storefront: %w", err)
	}

	fetcher := imagefetch.NewFetcher(imagefetch.Options{
		Client:   observability.NewHTTPClient(cfg.ImageFetchTimeout),
		Cache:    cacheProvider,
		CacheTTL: cfg.ImageCacheTTL,
		Logger:   logger,
	})
	exporter, err := export.NewExporter(export.Options{
		Fetcher:    fetcher,
		Translator: translator,
		Pricer:     pricer,
		BrandName:  cfg.BrandName,
		SiteURL:    cfg.SiteURL,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}
	a.Exports = services.NewExportService(a.Storefront, exporter, logger)

	var verifier handlers.TokenVerifier
	if cfg.AdminEnabled() {
		v, err := auth.NewVerifier(auth.Options{
			ProjectID:   cfg.FirebaseProjectID,
			AdminEmails: cfg.AdminEmails,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize token verifier: %w", err)
		}
		verifier = v
	} else {
		logger.Warn("admin sign-in disabled", "reason", "FIREBASE_PROJECT_ID or ADMIN_EMAILS not set")
	}

	var uploader media.Uploader
	if cfg.UploadsEnabled() {
		u, err := media.NewCloudinaryUploader(media.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize uploader: %w", err)
		}
		uploader = u
	}

	a.Handlers, err = handlers.New(handlers.Dependencies{
		Config:         cfg,
		Translator:     translator,
		Storefront:     a.Storefront,
		Catalog:        a.Catalog,
		Exports:        a.Exports,
		SessionManager: a.SessionManager,
		Verifier:       verifier,
		Uploader:       uploader,
		HealthCheck:    storeHealthCheck(store),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize handlers: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.SessionManager != nil {
		closeSessionManager(a.Logger, a.SessionManager)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close document store", "error", err)
		}
	}
	if a.flushSentry != nil {
		a.flushSentry()
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// storeHealthCheck reads one settings document; a missing document still
// proves the store answers.
func storeHealthCheck(store docstore.Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, err := store.Get(ctx, repository.CollectionSettings, "pricing")
		if err == nil || errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
