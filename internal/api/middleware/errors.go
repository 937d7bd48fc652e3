package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tom-alerce/internal/errors"
)

// StatusFor maps an error to the HTTP status returned to clients.
func StatusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryLimit:
		return http.StatusTooManyRequests
	case errors.CategoryNetwork, errors.CategoryIntegration, errors.CategoryTimeout:
		return http.StatusBadGateway
	case errors.CategoryCancellation:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
