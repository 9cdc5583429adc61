package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys defined by this package,
// preventing collisions with keys defined elsewhere.
type contextKey int

// loggerKey is the context key under which request-scoped loggers travel.
const loggerKey contextKey = iota

// WithLogger returns a copy of ctx that carries the given logger. Middleware
// attaches request-scoped loggers (for example with a trace ID field) so that
// downstream services and stores log with the request's attributes.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger carried by ctx, or slog.Default() when ctx
// carries none. It never returns nil.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger carried by ctx, or the provided
// fallback when ctx carries none. Components that hold a scoped logger of
// their own use this so their attributes survive outside request handling.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok && log != nil {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
