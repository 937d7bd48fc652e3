package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tom-alerce/internal/errors"
)

const defaultTargetPageSize = 50

func (c *Controller) initTargetRoutes() {
	g := c.Group.Group("/targets")
	g.GET("", c.ListTargets)
	g.GET("/:id", c.GetTarget)
	g.GET("/:id/visibility", c.GetTargetVisibility)
}

// ListTargets returns stored targets, newest first.
func (c *Controller) ListTargets(ctx echo.Context) error {
	limit, err := queryInt(ctx, "limit", defaultTargetPageSize)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid pagination")
	}
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid pagination")
	}

	targets, err := c.DS.ListTargets(ctx.Request().Context(), limit, offset)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list targets")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"targets": targets,
		"count":   len(targets),
		"limit":   limit,
		"offset":  offset,
	})
}

// GetTarget returns one target with its aliases.
func (c *Controller) GetTarget(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid target id")
	}
	target, err := c.DS.GetTarget(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get target")
	}
	return ctx.JSON(http.StatusOK, target)
}

// GetTargetVisibility reports altitude and airmass over tonight, or the
// night starting on ?date=YYYY-MM-DD.
func (c *Controller) GetTargetVisibility(ctx echo.Context) error {
	if c.Visibility == nil {
		return c.HandleError(ctx, errors.Newf("no observatory configured").
			Category(errors.CategoryConfiguration).
			Component("api").
			Build(), "Visibility unavailable")
	}

	id, err := parseID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid target id")
	}

	now := c.now()
	if raw := ctx.QueryParam("date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.HandleError(ctx, errors.New(err).
				Category(errors.CategoryValidation).
				Context("date", raw).
				Component("api").
				Build(), "Invalid date, expected YYYY-MM-DD")
		}
		// noon UTC picks the night that begins on that date
		now = date.Add(12 * time.Hour)
	}

	target, err := c.DS.GetTarget(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get target")
	}
	report, err := c.Visibility.ForTarget(target, now)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute visibility")
	}
	return ctx.JSON(http.StatusOK, report)
}
