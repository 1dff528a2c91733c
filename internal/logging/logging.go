// Package logging threads request-scoped slog loggers through contexts so
// that handlers, the responder and the services annotate one shared logger
// per request instead of constructing their own.
package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// NewContext returns a derived context carrying the logger. A nil logger
// leaves the context unchanged.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or nil when none was
// attached. Callers fall back to their own logger on nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}

// With re-attaches the context logger extended with the given attributes, so
// everything logged downstream carries them. A context without a logger
// passes through untouched.
func With(ctx context.Context, args ...any) context.Context {
	logger := FromContext(ctx)
	if logger == nil || len(args) == 0 {
		return ctx
	}
	return NewContext(ctx, logger.With(args...))
}
