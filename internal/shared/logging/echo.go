package logging

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// RequestLogger logs one slog record per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
				slog.String("reqID", v.RequestID),
			}
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.Any("error", v.Error))
			}
			logger.LogAttrs(context.Background(), level, "http request", attrs...)
			return nil
		},
	})
}

// EchoLevel maps a textual level onto echo's own logger levels.
func EchoLevel(raw string) log.Lvl {
	switch ParseLevel(raw) {
	case slog.LevelDebug, slog.LevelDebug - 2:
		return log.DEBUG
	case slog.LevelWarn:
		return log.WARN
	case slog.LevelError:
		return log.ERROR
	default:
		return log.INFO
	}
}
