// Package conf provides configuration management for tom-alerce.
package conf

import "github.com/tphakala/tom-alerce/internal/logger"

// GetLogger returns the config package logger. It is fetched from the global
// logger on every call since the central logger is installed after init.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
