package middleware

import (
	"TradeYodha/internal/service/ratelimit"
	xhttp "TradeYodha/pkg/http"
	"TradeYodha/pkg/logger"

	"github.com/labstack/echo/v4"
)

// KeyFunc picks the throttling key for a request.
type KeyFunc func(c echo.Context) string

// ClientKey throttles per authenticated user, falling back to client IP.
func ClientKey(c echo.Context) string {
	if uid := c.Request().Header.Get("X-User-ID"); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.RealIP()
}

// RateLimit rejects requests over the per-key budget with 429.
func RateLimit(l *ratelimit.Limiter, key KeyFunc, log *logger.Logger) echo.MiddlewareFunc {
	if key == nil {
		key = ClientKey
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if !l.Allow(k) {
				log.Warn("request throttled", logger.String("key", k), logger.String("route", c.Path()))
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
			}
			return next(c)
		}
	}
}
