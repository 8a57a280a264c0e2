package middleware

import (
	"time"

	"TradeYodha/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests. 5xx responses log at error level and
// requests slower than slow (when > 0) at warn.
func RequestLogging(l *logger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", routeOf(c)),
				logger.String("uri", req.RequestURI),
				logger.String("remote_ip", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Int64("bytes", res.Size),
				logger.Duration("latency_ms", latency),
			}
			switch {
			case res.Status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && latency >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}

			return nil
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
