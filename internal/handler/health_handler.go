package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheck reports whether the service can reach its database
func HealthCheck(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			logger.FromContext(c).Error("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
