package handler

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/handler/webhook"
	"github.com/dukerupert/vanir/internal/middleware"
)

// NewRouter assembles the HTTP server: the tenant-scoped order API, the
// Stripe webhook, health, and metrics.
func NewRouter(orders *OrderHandler, stripe *webhook.StripeHandler, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/v1.0", middleware.RequireTenant)
	api.POST("/orders", orders.Create)
	api.GET("/orders/:id", orders.Get)
	api.PATCH("/orders/:id", orders.Update)

	e.POST("/webhooks/stripe", stripe.Handle)

	return e
}

// requestLogger logs one line per request in the shared zerolog format.
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
