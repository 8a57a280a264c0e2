package http

import "github.com/labstack/echo/v4"

// Handler mounts a group of routes on the server's echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Routes adapts a plain function to Handler, for small probes and tests.
type Routes func(e *echo.Echo)

func (r Routes) RegisterRoutes(e *echo.Echo) { r(e) }
