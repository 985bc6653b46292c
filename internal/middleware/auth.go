package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"go.uber.org/zap"
)

// APIAuthMiddleware guards JSON write routes. A dashboard session already
// resolved by the gate is enough; otherwise a Bearer token is required.
func APIAuthMiddleware(gate *SessionGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); ok {
				return next(c)
			}

			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("bad_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			identity, err := gate.Verify(c.Request().Context(), parts[1])
			if err != nil {
				log.Warn("Invalid access token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(identityKey, identity)
			c.Set("user_id", identity.UserID)
			c.Set("email", identity.Email)

			return next(c)
		}
	}
}
