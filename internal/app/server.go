package app

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	bookingstransport "toursApi/internal/modules/bookings/interface"
	"toursApi/internal/platform/storage"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/httputil"
	"toursApi/internal/shared/logging"
	"toursApi/internal/shared/middleware"
)

const (
	webhookRoute = "/api/v1/bookings" + bookingstransport.WebhookPath
	liveRoute    = "/api/v1/live"
	metricsRoute = "/metrics"

	compressMinSize = 1024
)

// ErrorMapper translates infrastructure errors that carry no status.
func ErrorMapper() *httputil.ErrorMapper {
	return httputil.NewErrorMapper().
		WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token. Please log in again!").
		WithMapping(auth.ErrExpiredToken, http.StatusUnauthorized, "Your token has expired! Please log in again.").
		WithMapping(storage.ErrInvalidKey, http.StatusBadRequest, "Invalid image name.")
}

func (a *App) server(svc *services) *echo.Echo {
	cfg := a.cfg
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(logging.EchoLevel(cfg.Logging.Level))
	e.HTTPErrorHandler = httputil.NewHTTPErrorHandler(cfg.App.Development(), ErrorMapper())

	isWebhook := func(c echo.Context) bool { return c.Path() == webhookRoute }
	compress, err := middleware.Compress(compressMinSize, func(c echo.Context) bool {
		return c.Path() == liveRoute || c.Path() == metricsRoute
	})
	if err != nil {
		a.logger.Warn("response compression disabled", "error", err)
		compress = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(compress)
	e.Use(logging.RequestLogger(a.logger))
	e.Use(a.metrics.Middleware())
	e.Use(echomw.Secure())
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}).Handler))
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: cfg.Security.BodyLimit,
		Skipper: func(c echo.Context) bool {
			return isWebhook(c) || strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
		},
	}))
	e.Use(middleware.Sanitize(isWebhook))

	e.GET(metricsRoute, a.metrics.Handler())
	e.Static("/img", filepath.Join(cfg.Storage.PublicDir, "img"))

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow)
	a.routes(e.Group("/api", limiter.Middleware()), svc)
	return e
}
