package main

// The catalog server serves the storefront API and the admin panel.

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunajoyas/catalogo/app"
	"github.com/lunajoyas/catalogo/server"
)

const shutdownGrace = 30 * time.Second

func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	app.LoadDotEnv(bootLogger, os.Getenv("ENV_FILE"))

	if err := run(); err != nil {
		bootLogger.Error("catalog server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	srv, err := server.New(application.Config, application.Logger, application.Handlers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	application.Logger.Info("shutting down", "grace", shutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
