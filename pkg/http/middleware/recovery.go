package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"TradeYodha/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a 500 envelope with code ERR_INTERNAL.
// A panic after the response was committed is only logged.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("panic recovered",
					logger.Error(perr),
					logger.String("route", routeOf(c)),
					logger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"success": false,
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data": []map[string]string{
						{"code": "ERR_INTERNAL", "message": "internal error"},
					},
				})
			}()
			return next(c)
		}
	}
}
