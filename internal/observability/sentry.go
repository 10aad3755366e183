package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
}

// InitSentry enables error and trace reporting. It is a no-op without a
// DSN; the returned flush must run before the process exits.
func InitSentry(cfg SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	rate := cfg.TracesSampleRate
	if rate <= 0 {
		rate = 0.2
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: rate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
