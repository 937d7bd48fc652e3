// Package alerce implements the ALeRCE alert broker: query form, payload
// construction, paginated search, single-object lookup and conversion to
// generic alerts and targets.
package alerce

import "github.com/tphakala/tom-alerce/internal/logger"

// GetLogger returns the alerce module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("alerce")
}
