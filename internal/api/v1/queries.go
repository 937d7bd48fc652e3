package api

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
)

// SaveQueryRequest is the body of POST /queries.
type SaveQueryRequest struct {
	Name       string            `json:"name" validate:"required,max=500"`
	Broker     string            `json:"broker" validate:"required,max=50"`
	Parameters map[string]string `json:"parameters"`
}

// QueryRunResponse is the result of running a saved query.
type QueryRunResponse struct {
	Query *datastore.BrokerQuery `json:"query"`
	AlertsResponse
}

var (
	requestValidator     *validator.Validate
	requestValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	requestValidatorOnce.Do(func() {
		requestValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return requestValidator
}

func (c *Controller) initQueryRoutes() {
	g := c.Group.Group("/queries")
	g.POST("", c.SaveQuery)
	g.GET("", c.ListQueries)
	g.POST("/:id/run", c.RunQuery)
}

// SaveQuery validates and stores a named broker search.
func (c *Controller) SaveQuery(ctx echo.Context) error {
	var req SaveQueryRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Category(errors.CategoryValidation).
			Component("api").
			Build(), "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := getValidator().Struct(req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Category(errors.CategoryValidation).
			Component("api").
			Build(), "Invalid query")
	}

	b, err := c.Brokers.Get(req.Broker)
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Category(errors.CategoryValidation).
			Context("broker", req.Broker).
			Component("api").
			Build(), "Unknown broker")
	}

	values := url.Values{}
	for k, v := range req.Parameters {
		if v != "" {
			values.Set(k, v)
		}
	}
	if qv, ok := b.(broker.QueryValidator); ok {
		if err := qv.ValidateQuery(values); err != nil {
			return c.HandleError(ctx, err, "Invalid query parameters")
		}
	}

	query := &datastore.BrokerQuery{Name: req.Name, Broker: b.Name()}
	if err := query.SetValues(values); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Category(errors.CategoryValidation).
			Component("api").
			Build(), "Invalid query parameters")
	}
	if err := c.DS.SaveQuery(ctx.Request().Context(), query); err != nil {
		return c.HandleError(ctx, err, "Failed to save query")
	}

	c.logger.WithContext(ctx.Request().Context()).Info("query saved",
		logger.String("name", query.Name),
		logger.String("broker", query.Broker),
		logger.Int("query_id", int(query.ID)))
	return ctx.JSON(http.StatusCreated, query)
}

// ListQueries returns saved queries, most recently modified first.
func (c *Controller) ListQueries(ctx echo.Context) error {
	queries, err := c.DS.ListQueries(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list queries")
	}
	return ctx.JSON(http.StatusOK, map[string]any{"queries": queries, "count": len(queries)})
}

// RunQuery executes a saved query and records the run time.
func (c *Controller) RunQuery(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid query id")
	}
	reqCtx := ctx.Request().Context()

	query, err := c.DS.GetQuery(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load query")
	}
	b, err := c.Brokers.Get(query.Broker)
	if err != nil {
		return c.HandleError(ctx, err, "Query broker unavailable")
	}
	values, err := query.Values()
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("query_id", id).
			Component("api").
			Build(), "Stored query parameters are corrupt")
	}

	resp, err := c.search(ctx, b, values)
	if err != nil {
		return c.HandleError(ctx, err, "Alert search failed")
	}

	ranAt := c.now().UTC()
	if err := c.DS.MarkQueryRun(reqCtx, id, ranAt); err != nil {
		return c.HandleError(ctx, err, "Failed to record query run")
	}
	query.LastRun = &ranAt

	return ctx.JSON(http.StatusOK, QueryRunResponse{Query: query, AlertsResponse: *resp})
}
