package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"TradeYodha/internal/service/ratelimit"
	"TradeYodha/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitPerClient(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(ratelimit.New(0.001, 1), nil, logger.Nop()))
	e.GET("/api/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		if user != "" {
			req.Header.Set("X-User-ID", user)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("u1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u1"))
	assert.Equal(t, http.StatusOK, do("u2"))
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}
