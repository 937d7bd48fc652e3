// Package datastore persists targets, target lists and saved broker queries
// through gorm on SQLite or MySQL.
package datastore

import "github.com/tphakala/tom-alerce/internal/logger"

// GetLogger returns the datastore module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
