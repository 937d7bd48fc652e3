package api

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/logger"
)

// AlertsResponse lists normalized alerts of one search.
type AlertsResponse struct {
	Broker string                `json:"broker"`
	Count  int                   `json:"count"`
	Alerts []broker.GenericAlert `json:"alerts"`
}

func (c *Controller) initBrokerRoutes() {
	g := c.Group.Group("/brokers")
	g.GET("", c.ListBrokers)
	g.GET("/:broker/form", c.GetBrokerForm)
	g.GET("/:broker/alerts", c.SearchAlerts)
	g.GET("/:broker/alerts/:id", c.GetAlert)
	g.POST("/:broker/alerts/:id/target", c.CreateTargetFromAlert)
}

// ListBrokers returns the registered broker names.
func (c *Controller) ListBrokers(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{"brokers": c.Brokers.Names()})
}

// GetBrokerForm describes the query form of a broker.
func (c *Controller) GetBrokerForm(ctx echo.Context) error {
	b, err := c.Brokers.Get(ctx.Param("broker"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown broker")
	}
	form, err := b.Form(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build query form")
	}
	return ctx.JSON(http.StatusOK, form)
}

// SearchAlerts runs a search with the query string as form values.
func (c *Controller) SearchAlerts(ctx echo.Context) error {
	b, err := c.Brokers.Get(ctx.Param("broker"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown broker")
	}
	resp, err := c.search(ctx, b, ctx.QueryParams())
	if err != nil {
		return c.HandleError(ctx, err, "Alert search failed")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) search(ctx echo.Context, b broker.Broker, values url.Values) (*AlertsResponse, error) {
	alerts, err := b.FetchAlerts(ctx.Request().Context(), values)
	if err != nil {
		return nil, err
	}

	resp := &AlertsResponse{Broker: b.Name(), Alerts: make([]broker.GenericAlert, 0, len(alerts))}
	for _, a := range alerts {
		g, err := b.ToGenericAlert(a)
		if err != nil {
			return nil, err
		}
		resp.Alerts = append(resp.Alerts, g)
	}
	resp.Count = len(resp.Alerts)

	c.logger.WithContext(ctx.Request().Context()).Info("alert search completed",
		logger.String("broker", b.Name()),
		logger.Int("alerts", resp.Count))
	return resp, nil
}

// GetAlert returns one alert exactly as the broker sent it.
func (c *Controller) GetAlert(ctx echo.Context) error {
	b, err := c.Brokers.Get(ctx.Param("broker"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown broker")
	}
	alert, err := b.FetchAlert(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch alert")
	}
	return ctx.JSONBlob(http.StatusOK, alert.Raw())
}

// CreateTargetFromAlert fetches an alert and stores it as a target.
func (c *Controller) CreateTargetFromAlert(ctx echo.Context) error {
	b, err := c.Brokers.Get(ctx.Param("broker"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown broker")
	}
	reqCtx := ctx.Request().Context()

	alert, err := b.FetchAlert(reqCtx, ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch alert")
	}
	target, err := b.ToTarget(reqCtx, alert)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create target")
	}
	return ctx.JSON(http.StatusCreated, target)
}
