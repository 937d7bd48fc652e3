package visibility

import "github.com/tphakala/tom-alerce/internal/logger"

// GetLogger returns the visibility module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("visibility")
}
