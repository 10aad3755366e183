package logging

import (
	"context"
	"log/slog"
)

type ctxLoggerKey struct{}

var discard = slog.New(slog.DiscardHandler)

// WithLogger stores logger in ctx. A nil logger stores a discarding one.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = discard
	}
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// With returns a context whose logger carries the extra attributes.
// Later FromContext calls see them on every record.
func With(ctx context.Context, fallback *slog.Logger, args ...any) context.Context {
	if len(args) == 0 {
		return WithLogger(ctx, FromContext(ctx, fallback))
	}
	return WithLogger(ctx, FromContext(ctx, fallback).With(args...))
}

// FromContext returns the request logger, then fallback, then a
// discarding logger.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, _ := ctx.Value(ctxLoggerKey{}).(*slog.Logger); logger != nil {
			return logger
		}
	}
	if fallback != nil {
		return fallback
	}
	return discard
}
