package handlers

import (
	"net/http"

	"discoveryserver/api"
	"discoveryserver/helpers"
	"discoveryserver/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	healthPath  = "/health"
	metricsPath = "/metrics"
)

// NewRouter builds the echo instance serving the registry API, /health and /metrics.
// auth protects everything but /health; nil disables authentication.
func NewRouter(si ServerInterface, gatherer prometheus.Gatherer, auth echo.MiddlewareFunc, logger log.Logger) (*echo.Echo, error) {
	validator, err := NewOpenAPIValidator(api.Spec)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	service.RegisterErrorHandler(e, helpers.NilPanic(logger, "handlers.router.go: logger is required"))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(noStore)
	if auth != nil {
		e.Use(auth)
	}
	e.Use(validator)

	e.GET(healthPath, health)
	e.GET(metricsPath, echo.WrapHandler(promhttp.HandlerFor(helpers.NilPanic(gatherer, "handlers.router.go: gatherer is required"), promhttp.HandlerOpts{})))
	RegisterHandlers(e, si)
	return e, nil
}

// noStore marks every response as uncacheable.
func noStore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return next(c)
	}
}

// health answers liveness probes. It needs no credentials.
func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
}
