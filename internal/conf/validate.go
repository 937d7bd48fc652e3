// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}

	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateAlerceSettings(&s.Alerce) },
		func(s *Settings) error { return validateOutputSettings(&s.Output) },
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateObservatorySettings(&s.Observatory) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAlerceSettings(settings *AlerceSettings) error {
	var errs []string

	if err := validateHTTPURL(settings.APIURL); err != nil {
		errs = append(errs, fmt.Sprintf("alerce.apiurl: %v", err))
	}
	if err := validateHTTPURL(settings.SiteURL); err != nil {
		errs = append(errs, fmt.Sprintf("alerce.siteurl: %v", err))
	}
	if settings.LCClassifierVersion == "" || settings.StampClassifierVersion == "" {
		errs = append(errs, "alerce classifier versions must not be empty")
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "alerce.timeout must be positive")
	}
	if settings.RateLimit < 0 {
		errs = append(errs, "alerce.ratelimit must be non-negative")
	}
	if settings.RateLimit > 0 && settings.Burst < 1 {
		errs = append(errs, "alerce.burst must be at least 1 when rate limiting is enabled")
	}
	if settings.Breaker.Enabled && settings.Breaker.MaxFailures == 0 {
		errs = append(errs, "alerce.breaker.maxfailures must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ALeRCE settings errors: %v", errs)
	}
	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	switch {
	case settings.SQLite.Enabled && settings.MySQL.Enabled:
		return errors.New("output: sqlite and mysql cannot both be enabled")
	case !settings.SQLite.Enabled && !settings.MySQL.Enabled:
		return errors.New("output: one of sqlite or mysql must be enabled")
	case settings.SQLite.Enabled && settings.SQLite.Path == "":
		return errors.New("output.sqlite.path must not be empty")
	case settings.MySQL.Enabled && (settings.MySQL.Host == "" || settings.MySQL.Database == ""):
		return errors.New("output.mysql requires host and database")
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("webserver.listen %q is not host:port: %w", settings.Listen, err)
	}
	return nil
}

func validateObservatorySettings(settings *ObservatorySettings) error {
	var errs []string

	if settings.Latitude < -90 || settings.Latitude > 90 {
		errs = append(errs, fmt.Sprintf("latitude must be between -90 and 90, got %g", settings.Latitude))
	}
	if settings.Longitude < -180 || settings.Longitude > 180 {
		errs = append(errs, fmt.Sprintf("longitude must be between -180 and 180, got %g", settings.Longitude))
	}
	if settings.SampleStep <= 0 {
		errs = append(errs, "samplestep must be positive")
	}
	if settings.AirmassLimit != 0 && settings.AirmassLimit < 1 {
		errs = append(errs, fmt.Sprintf("airmasslimit must be 0 or at least 1, got %g", settings.AirmassLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("observatory settings errors: %v", errs)
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return errors.New("sentry.dsn is required when sentry is enabled")
	}
	return nil
}
