package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port      string     `env:"PORT" envDefault:"8080"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	LogFile   string     `env:"LOG_FILE"`

	BaseURL       string `env:"BASE_URL" validate:"omitempty,url"`
	SiteURL       string `env:"SITE_URL" envDefault:"lunajoyas.com"`
	BrandName     string `env:"BRAND_NAME" envDefault:"Luna Joyas" validate:"required"`
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"es" validate:"oneof=es en"`

	StoreProvider      string `env:"STORE_PROVIDER" envDefault:"memory" validate:"oneof=memory firestore postgres"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID" validate:"required_if=StoreProvider firestore"`
	GoogleCredentials  string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	DatabaseURL        string `env:"DATABASE_URL" validate:"required_if=StoreProvider postgres"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	SessionStoreProvider  string `env:"SESSION_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis,required_if=SessionStoreProvider redis"`

	CatalogCacheTTL   time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m" validate:"gte=0"`
	ImageCacheTTL     time.Duration `env:"IMAGE_CACHE_TTL" envDefault:"24h" validate:"gte=0"`
	ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"20s" validate:"gt=0"`

	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey       string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret    string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryUploadFolder string `env:"CLOUDINARY_UPLOAD_FOLDER" envDefault:"catalogo"`

	FirebaseProjectID string   `env:"FIREBASE_PROJECT_ID"`
	AdminEmails       []string `env:"ADMIN_EMAILS" envSeparator:","`

	WhatsAppNumber  string `env:"WHATSAPP_NUMBER" validate:"omitempty,numeric"`
	InstagramHandle string `env:"INSTAGRAM_HANDLE"`

	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"development"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AdminEnabled reports whether admin sign-in can be verified.
func (c *Config) AdminEnabled() bool {
	return c.FirebaseProjectID != "" && len(c.AdminEmails) > 0
}

// UploadsEnabled reports whether CDN credentials are configured.
func (c *Config) UploadsEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) normalize() {
	emails := make([]string, 0, len(c.AdminEmails))
	for _, email := range c.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			emails = append(emails, email)
		}
	}
	c.AdminEmails = emails
	c.InstagramHandle = strings.TrimPrefix(strings.TrimSpace(c.InstagramHandle), "@")
	c.WhatsAppNumber = strings.TrimPrefix(strings.TrimSpace(c.WhatsAppNumber), "+")
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	cloudinary := []string{c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret}
	set := 0
	for _, v := range cloudinary {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 0 && set != len(cloudinary) {
		return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set together")
	}

	if (c.FirebaseProjectID == "") != (len(c.AdminEmails) == 0) {
		return fmt.Errorf("FIREBASE_PROJECT_ID and ADMIN_EMAILS must be set together")
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if c.AdminEnabled() && baseURL == "" {
		return fmt.Errorf("BASE_URL is required when the admin panel is enabled")
	}

	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
