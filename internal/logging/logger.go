package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

type Options struct {
	Level  slog.Level
	Format string
	// File, when set, receives a JSON copy of every record.
	File   string
	Output io.Writer
}

// New builds the process logger. The returned closer releases the log
// file, if any.
func New(opts Options) (*slog.Logger, func() error, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})
	case "text", "":
		console = tint.NewHandler(out, &tint.Options{Level: opts.Level})
	default:
		return nil, nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	closer := func() error { return nil }
	if opts.File == "" {
		return slog.New(console), closer, nil
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(MultiHandler(console, fileHandler)), file.Close, nil
}
