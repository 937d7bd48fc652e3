package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/tom-alerce/internal/logger"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = echo.HeaderXRequestID

const maxRequestIDLength = 128

// NewRequestID assigns every request an identifier. A client supplied
// X-Request-ID is kept; otherwise a UUID is generated. The identifier is
// echoed in the response and becomes the logger trace id.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.New().String()
		},
		TargetHeader: HeaderRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			if len(id) > maxRequestIDLength {
				id = id[:maxRequestIDLength]
				c.Response().Header().Set(HeaderRequestID, id)
			}
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// RequestID returns the identifier assigned to the current request.
func RequestID(c echo.Context) string {
	return c.Response().Header().Get(HeaderRequestID)
}
