package http

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
)

const serviceName = "Storefront-Service"

func httpLogger() *slog.Logger {
	return slog.Default().With("service", serviceName, "module", "http", "layer", "adapter")
}

// logRequestFailure records a rejected request. Client mistakes log at warn and only
// server faults at error, so alerting can key on level alone.
func logRequestFailure(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
		fields = append(fields, "route", rctx.RoutePattern())
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	httpLogger().Log(ctx, level, "request failed", fields...)
}
