package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

const unmatchedPath = "unmatched"

// NewHTTPMetrics records request counts, latency and response sizes. Paths are
// labelled by route template so identifiers do not inflate cardinality.
func NewHTTPMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = unmatchedPath
			}
			method := c.Request().Method

			status := c.Response().Status
			if err != nil {
				// the error handler has not written the response yet
				status = StatusFor(err)
				m.RecordHTTPRequestError(method, path, errorType(err))
			}

			m.RecordHTTPRequest(method, path, status, time.Since(start).Seconds())
			m.RecordHTTPResponseSize(method, path, c.Response().Size)
			return err
		}
	}
}

func errorType(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return "http"
	}
	return string(errors.CategoryOf(err))
}
