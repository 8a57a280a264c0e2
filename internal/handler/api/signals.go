package api

import (
	"errors"
	"net/http"

	"TradeYodha/internal/domain/models"
	"TradeYodha/internal/usecase"
	xhttp "TradeYodha/pkg/http"
	xlogger "TradeYodha/pkg/logger"
	"TradeYodha/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	HeaderUserID        = "X-User-ID"
	DefaultCacheControl = "s-maxage=30, stale-while-revalidate=60"
)

var _ xhttp.Handler = (*SignalsHandler)(nil)

// HealthInfo is reported by /healthz.
type HealthInfo struct {
	Version      string `json:"version"`
	CacheBackend string `json:"cacheBackend"`
}

// SignalsHandler serves the signal endpoints under /api.
type SignalsHandler struct {
	engine       *usecase.SignalEngine
	scopes       *usecase.ScopeResolver
	insight      *usecase.InsightService
	health       HealthInfo
	cacheControl string
	groupMW      []echo.MiddlewareFunc
	logger       *xlogger.Logger
}

type Option func(*SignalsHandler)

// WithGroupMiddleware applies middleware to /api routes only.
func WithGroupMiddleware(m ...echo.MiddlewareFunc) Option {
	return func(h *SignalsHandler) { h.groupMW = append(h.groupMW, m...) }
}

func WithHealthInfo(info HealthInfo) Option {
	return func(h *SignalsHandler) { h.health = info }
}

func WithCacheControl(v string) Option {
	return func(h *SignalsHandler) {
		if v != "" {
			h.cacheControl = v
		}
	}
}

func NewSignalsHandler(engine *usecase.SignalEngine, scopes *usecase.ScopeResolver, insight *usecase.InsightService, logger *xlogger.Logger, opts ...Option) *SignalsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &SignalsHandler{
		engine:       engine,
		scopes:       scopes,
		insight:      insight,
		cacheControl: DefaultCacheControl,
		logger:       logger.With(xlogger.String("component", "signals_handler")),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.groupMW...)
	g.GET("/flow-summary", h.FlowSummary)
	g.GET("/overnight-gaps", h.OvernightGaps)
	if h.engine.HasPrintSource() {
		g.GET("/darkpool-summary", h.DarkPoolSummary)
	}
	g.POST("/ai/darkpool-insight", h.DarkPoolInsight)
}

func (h *SignalsHandler) FlowSummary(c echo.Context) error {
	req := &models.FlowSummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	scope, err := h.scopes.Resolve(c.Request().Context(), req.Tickers, c.Request().Header.Get(HeaderUserID))
	if err != nil {
		return h.fail(c, "flow_summary", err)
	}

	res, err := h.engine.FlowSummary(c.Request().Context(), scope)
	if err != nil {
		return h.fail(c, "flow_summary", err)
	}
	return h.ok(c, res)
}

func (h *SignalsHandler) OvernightGaps(c echo.Context) error {
	req := &models.OvernightGapsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	scope, err := h.scopes.Resolve(c.Request().Context(), req.Tickers, c.Request().Header.Get(HeaderUserID))
	if err != nil {
		return h.fail(c, "overnight_gaps", err)
	}

	res, err := h.engine.OvernightGaps(c.Request().Context(), scope, req.TopMovers)
	if err != nil {
		return h.fail(c, "overnight_gaps", err)
	}
	return h.ok(c, res)
}

func (h *SignalsHandler) DarkPoolSummary(c echo.Context) error {
	req := &models.DarkPoolSummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	window, err := util.ParseWindow(req.Window)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("window", err.Error()))
	}
	scope, err := h.scopes.Resolve(c.Request().Context(), req.Tickers, c.Request().Header.Get(HeaderUserID))
	if err != nil {
		return h.fail(c, "darkpool_summary", err)
	}

	res, err := h.engine.DarkPoolSummary(c.Request().Context(), scope, window)
	if err != nil {
		return h.fail(c, "darkpool_summary", err)
	}
	return h.ok(c, res)
}

// DarkPoolInsight always answers 200 once the body validates; generator
// failures surface as fallback text.
func (h *SignalsHandler) DarkPoolInsight(c echo.Context) error {
	req := &models.InsightContext{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.insight.Generate(c.Request().Context(), *req))
}

func (h *SignalsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":             "ok",
		"version":            h.health.Version,
		"upstreamConfigured": h.engine.Configured(),
		"printStore":         h.engine.HasPrintSource(),
		"cacheBackend":       h.health.CacheBackend,
	})
}

func (h *SignalsHandler) ok(c echo.Context, data interface{}) error {
	return xhttp.CachedResponse(c, h.cacheControl, data)
}

// fail maps domain errors onto HTTP errors.
func (h *SignalsHandler) fail(c echo.Context, op string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, models.ErrInvalidTickers):
		appErr = xhttp.BadRequestError("tickers", err.Error())
	case errors.Is(err, models.ErrNotConfigured):
		appErr = xhttp.NotConfiguredError("market data provider is not configured")
	case errors.Is(err, models.ErrUpstreamUnavailable),
		errors.Is(err, models.ErrUpstreamTimeout),
		errors.Is(err, models.ErrMalformedResponse):
		appErr = xhttp.UpstreamError("market data provider request failed").
			WithParam("kind", models.ErrorKind(err))
	default:
		appErr = xhttp.InternalError("failed to compute " + op)
	}

	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("signal request failed",
			xlogger.String("op", op),
			xlogger.String("kind", models.ErrorKind(err)),
			xlogger.Error(err),
		)
	}
	return xhttp.AppErrorResponse(c, appErr.WithError(err))
}

