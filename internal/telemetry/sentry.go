// Package telemetry sends error reports to Sentry when enabled in settings.
// Reports are privacy filtered: no user, host or runtime data leaves the
// process, and messages are scrubbed by the errors package reporter.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
)

// FlushTimeout bounds how long Shutdown waits for buffered events.
const FlushTimeout = 2 * time.Second

const releasePrefix = "tom-alerce@"

var (
	initMu      sync.Mutex
	initialized bool
)

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Option customizes the Sentry client.
type Option func(*sentry.ClientOptions)

// WithTransport replaces the HTTP transport, for tests.
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) { o.Transport = t }
}

// Init configures Sentry from settings and installs the error reporter. It is
// a no-op when Sentry is disabled.
func Init(settings *conf.SentrySettings, version string, opts ...Option) error {
	if settings == nil || !settings.Enabled {
		return nil
	}

	initMu.Lock()
	defer initMu.Unlock()

	options := sentry.ClientOptions{
		Dsn:              settings.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      settings.Environment,
		ServerName:       "",
		Release:          releasePrefix + version,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	}
	if options.Environment == "" {
		options.Environment = "production"
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := sentry.Init(options); err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized = true

	GetLogger().Info("error reporting enabled",
		logger.String("environment", options.Environment),
		logger.String("release", options.Release))
	return nil
}

// Enabled reports whether Init installed a reporter.
func Enabled() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initialized
}

// Shutdown flushes buffered events and detaches the error reporter.
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return
	}
	if !sentry.Flush(FlushTimeout) {
		GetLogger().Warn("timed out flushing error reports", logger.Duration("timeout", FlushTimeout))
	}
	errors.SetTelemetryReporter(nil)
	initialized = false
}

// applyPrivacyFilters strips identifying data from an event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}
