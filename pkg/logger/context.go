package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const RequestIDKey = "X-Request-ID"

type ctxKey struct{}

// FromEcho retrieves the logger from echo.Context with the request ID
func FromEcho(c echo.Context) *zap.Logger {
	// Try to get the logger from context first
	if logger, ok := c.Get("logger").(*zap.Logger); ok {
		return logger
	}

	// Otherwise, get the global logger and add request ID
	requestID, ok := c.Get(RequestIDKey).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return GetLogger().With(zap.String("request_id", requestID))
}

// WithContext stores the logger in a plain context so code below the HTTP
// layer logs with the same request ID.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext retrieves the logger stored by WithContext, falling back to
// the global logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return logger
	}
	return GetLogger()
}
