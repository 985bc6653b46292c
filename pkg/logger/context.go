package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// EchoKey is the echo.Context key holding the request-scoped logger
const EchoKey = "logger"

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	logger, ok := c.Get(EchoKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// FromStdContext retrieves the logger from a standard context
func FromStdContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
