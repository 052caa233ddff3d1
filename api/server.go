package api

import (
	"context"
	"fmt"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/config"
	"github.com/tidepool-org/timeline/errors"
)

func NewServer(handler *Handler, healthCheck *HealthCheck, zapLogger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(zapLogger))

	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	RegisterHandlers(e, handler)

	return e, nil
}

func RegisterHandlers(e *echo.Echo, handler *Handler) {
	e.POST("/v1/device-data", handler.PostDeviceData)
	e.PUT("/v1/notes/:noteId", func(ctx echo.Context) error {
		return handler.PutNote(ctx, ctx.Param("noteId"))
	})
	e.GET("/v1/data", handler.GetData)
	e.GET("/v1/stats/glucose", handler.GetGlucoseStats)
	e.GET("/v1/stats/bolus", handler.GetBolusStats)
	e.GET("/v1/stats/basal", handler.GetBasalStats)
}

func Start(e *echo.Echo, cfg *config.Config, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.HttpPort)); err != nil {
					fmt.Println(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}
