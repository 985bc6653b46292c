package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Reuse an upstream ID when a proxy already assigned one
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(echo.HeaderXRequestID, requestID)
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		c.Set("request_id", requestID)

		log := logger.GetLogger().With(zap.String("request_id", requestID))
		c.Set(logger.EchoKey, log)

		// Repositories log through the request context
		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))

		return next(c)
	}
}
