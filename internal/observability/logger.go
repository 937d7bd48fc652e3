// Package observability provides Prometheus metrics for tom-alerce.
package observability

import "github.com/tphakala/tom-alerce/internal/logger"

// GetLogger returns the module logger for metrics exposition.
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
