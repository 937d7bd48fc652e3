// Package api implements the JSON endpoints served under /api/v1.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/tom-alerce/internal/api/middleware"
	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/buildinfo"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/visibility"
)

// BasePath is the prefix of every route registered by the controller.
const BasePath = "/api/v1"

// GetLogger returns the API module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo       *echo.Echo
	Group      *echo.Group
	Brokers    *broker.Registry
	DS         datastore.Interface
	Visibility *visibility.Calculator
	Build      buildinfo.BuildInfo

	logger    logger.Logger
	now       func() time.Time
	startTime time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithVisibility enables the target visibility endpoint.
func WithVisibility(calc *visibility.Calculator) Option {
	return func(c *Controller) { c.Visibility = calc }
}

// WithBuildInfo sets the version reported by the health endpoint.
func WithBuildInfo(info buildinfo.BuildInfo) Option {
	return func(c *Controller) { c.Build = info }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates the controller and registers its routes on e.
func New(e *echo.Echo, brokers *broker.Registry, ds datastore.Interface, opts ...Option) (*Controller, error) {
	if e == nil || brokers == nil || ds == nil {
		return nil, errors.Newf("echo instance, broker registry and datastore are required").
			Category(errors.CategoryConfiguration).
			Component("api").
			Build()
	}

	c := &Controller{
		Echo:      e,
		Brokers:   brokers,
		DS:        ds,
		Build:     &buildinfo.Context{},
		logger:    GetLogger(),
		now:       time.Now,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Group = e.Group(BasePath)
	c.initRoutes()
	return c, nil
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initBrokerRoutes()
	c.initTargetRoutes()
	c.initQueryRoutes()
}

// HealthCheck reports service status and build metadata.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        c.Build.GetVersion(),
		"build_date":     c.Build.GetBuildDate(),
		"brokers":        c.Brokers.Names(),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      c.now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError writes an error response whose status follows the error
// category. The correlation id is the request id.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := mw.StatusFor(err)
	resp := ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: mw.RequestID(ctx),
	}

	log := c.logger.WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Error(err),
		logger.String("path", ctx.Path()),
		logger.Int("code", code),
		logger.String("ip", ctx.RealIP()),
	}
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// parseID reads a positive integer path parameter.
func parseID(ctx echo.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid %s %q", name, raw).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return uint(id), nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(ctx echo.Context, name string, fallback int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Newf("invalid %s %q", name, raw).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return n, nil
}
