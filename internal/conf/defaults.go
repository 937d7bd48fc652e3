// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default ALeRCE endpoints and classifier pin.
const (
	DefaultSiteURL           = "https://dev.alerce.online"
	DefaultAPIURL            = "https://dev.api.alerce.online"
	DefaultClassifierVersion = "bulk_0.0.1"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("alerce.siteurl", DefaultSiteURL)
	viper.SetDefault("alerce.apiurl", DefaultAPIURL)
	viper.SetDefault("alerce.lcclassifierversion", DefaultClassifierVersion)
	viper.SetDefault("alerce.stampclassifierversion", DefaultClassifierVersion)
	viper.SetDefault("alerce.timeout", 30*time.Second)
	viper.SetDefault("alerce.ratelimit", 5.0)
	viper.SetDefault("alerce.burst", 5)
	viper.SetDefault("alerce.cachettl", 24*time.Hour)
	viper.SetDefault("alerce.breaker.enabled", false)
	viper.SetDefault("alerce.breaker.maxfailures", 5)
	viper.SetDefault("alerce.breaker.opentimeout", 60*time.Second)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "tom-alerce.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "tom")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "tom")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", "127.0.0.1:8080")
	viper.SetDefault("webserver.readtimeout", 30*time.Second)
	viper.SetDefault("webserver.writetimeout", 60*time.Second)

	// Rubin/Gemini South site
	viper.SetDefault("observatory.name", "Cerro Pachon")
	viper.SetDefault("observatory.latitude", -30.2407)
	viper.SetDefault("observatory.longitude", -70.7366)
	viper.SetDefault("observatory.elevation", 2715.0)
	viper.SetDefault("observatory.samplestep", 30*time.Minute)
	viper.SetDefault("observatory.airmasslimit", 2.0)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "UTC")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/tom-alerce.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
}
