package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext stashes the logger in the context so request-scoped
// attributes survive across call boundaries. Values also survive context
// detachment, so a background refresh keeps the request's attributes.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stashed by WithContext, falling back to
// slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithRequestID tags the context logger with the request id so every log
// line downstream of this call carries it.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}
