package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Tee sends each record to every sink whose level admits it. Console
// output and the JSON log file are usually the two sinks.
type Tee struct {
	sinks []slog.Handler
}

// MultiHandler builds a Tee over the non-nil handlers. With no usable
// handler it discards.
func MultiHandler(handlers ...slog.Handler) slog.Handler {
	tee := &Tee{}
	for _, h := range handlers {
		if h != nil {
			tee.sinks = append(tee.sinks, h)
		}
	}
	switch len(tee.sinks) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return tee.sinks[0]
	}
	return tee
}

func (t *Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to all sinks even when one fails. Each sink gets its own
// clone of the record.
func (t *Tee) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t.sinks {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t *Tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t *Tee) derive(fn func(slog.Handler) slog.Handler) *Tee {
	next := &Tee{sinks: make([]slog.Handler, len(t.sinks))}
	for i, h := range t.sinks {
		next.sinks[i] = fn(h)
	}
	return next
}
