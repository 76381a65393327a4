package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewServer creates an echo server that logs requests through logger
func NewServer(logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("Request", fields...)
			return nil
		},
	}))

	return e
}

func RegisterRoutes(e *echo.Echo, syncs *SyncHandler, docs *DocumentHandler) {
	v1 := e.Group("/api/v1")

	v1.POST("/syncs", syncs.CreateSync)
	v1.GET("/syncs", syncs.ListSyncs)
	v1.GET("/syncs/:id", syncs.GetSync)

	v1.GET("/family-members", docs.ListFamilyMembers)
	v1.PUT("/family-members", docs.SaveFamilyMember)
	v1.DELETE("/family-members/:id", docs.DeleteFamilyMember)

	v1.GET("/profile", docs.GetProfile)
	v1.PUT("/profile", docs.SaveProfile)

	v1.GET("/settings", docs.GetSettings)
	v1.PUT("/settings", docs.SaveSettings)

	v1.GET("/gallery/:month", docs.ListGallery)
	v1.POST("/media/:filename", docs.UploadMedia)
}
