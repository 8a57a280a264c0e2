package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the {success,status,message,data} envelope.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Success: statusCode < http.StatusBadRequest,
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// CachedResponse is SuccessResponse with a shared-cache directive for CDNs.
// An empty directive writes no header.
func CachedResponse(c echo.Context, cacheControl string, data interface{}) error {
	if cacheControl != "" {
		c.Response().Header().Set(echo.HeaderCacheControl, cacheControl)
	}
	return SuccessResponse(c, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes err with its own status. Errors that are not an
// AppError become a generic ERR_INTERNAL so internals never leak to clients.
// Throttled responses carry Retry-After.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("internal error")
	}
	if appErr.Status == http.StatusTooManyRequests {
		secs := 1
		if v, ok := appErr.Params["retryAfter"].(int); ok && v > 0 {
			secs = v
		}
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
