// Package app wires settings into the long-lived components shared by the
// CLI commands and the HTTP server: datastore, broker registry, metrics and
// the visibility calculator.
package app

import (
	"net/http"

	"github.com/tphakala/tom-alerce/internal/alerce"
	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/observability"
	"github.com/tphakala/tom-alerce/internal/visibility"
)

// GetLogger returns the app module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

// App holds the initialized components.
type App struct {
	Settings   *conf.Settings
	Store      datastore.Interface
	Brokers    *broker.Registry
	Alerce     *alerce.Broker
	Metrics    *observability.Metrics
	Visibility *visibility.Calculator

	ownStore bool
	log      logger.Logger
}

type options struct {
	store     datastore.Interface
	transport http.RoundTripper
	metrics   bool
}

// Option customizes New.
type Option func(*options)

// WithStore uses an already opened store instead of the configured backend.
// Close leaves it open.
func WithStore(ds datastore.Interface) Option {
	return func(o *options) { o.store = ds }
}

// WithTransport replaces the HTTP transport of broker clients.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics() Option {
	return func(o *options) { o.metrics = true }
}

// metricsSetter is implemented by the GORM backed stores.
type metricsSetter interface {
	SetMetrics(m *datastore.Metrics)
}

// New opens the datastore and registers the brokers. Close releases what New
// opened.
func New(settings *conf.Settings, opts ...Option) (*App, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Settings: settings,
		Brokers:  broker.NewRegistry(),
		log:      GetLogger(),
	}

	if o.metrics {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, errors.New(err).
				Component("app").
				Category(errors.CategorySystem).
				Context("operation", "init-metrics").
				Build()
		}
		a.Metrics = m
	}

	ownStore := o.store == nil
	if ownStore {
		ds, err := datastore.New(settings)
		if err != nil {
			return nil, err
		}
		if err := ds.Open(); err != nil {
			return nil, err
		}
		a.Store = ds
	} else {
		a.Store = o.store
	}
	if a.Metrics != nil {
		if s, ok := a.Store.(metricsSetter); ok {
			s.SetMetrics(a.Metrics.Datastore)
		}
	}

	if err := a.registerAlerce(o.transport); err != nil {
		if ownStore {
			a.closeStore()
		}
		return nil, err
	}

	if settings.Observatory.Name != "" {
		calc, err := visibility.NewCalculator(settings.Observatory)
		if err != nil {
			if ownStore {
				a.closeStore()
			}
			return nil, err
		}
		a.Visibility = calc
	} else {
		a.log.Info("no observatory configured, visibility disabled")
	}

	a.ownStore = ownStore
	return a, nil
}

func (a *App) registerAlerce(transport http.RoundTripper) error {
	var clientOpts []alerce.Option
	if transport != nil {
		clientOpts = append(clientOpts, alerce.WithTransport(transport))
	}
	if a.Metrics != nil {
		clientOpts = append(clientOpts, alerce.WithRecorder(a.Metrics.Broker.For(alerce.BrokerName)))
	}

	client, err := alerce.NewClient(alerce.ConfigFromSettings(&a.Settings.Alerce), clientOpts...)
	if err != nil {
		return err
	}
	b, err := alerce.Register(a.Brokers, client, a.Store)
	if err != nil {
		client.Close()
		return err
	}
	if a.Metrics != nil {
		b.SetMetrics(a.Metrics.Broker)
	}
	a.Alerce = b
	return nil
}

func (a *App) closeStore() {
	if err := a.Store.Close(); err != nil {
		a.log.Warn("failed to close datastore", logger.Error(err))
	}
}

// Close releases the broker clients and, unless supplied through WithStore,
// the datastore.
func (a *App) Close() error {
	if a.Alerce != nil {
		a.Alerce.Client().Close()
	}
	if !a.ownStore {
		return nil
	}
	return a.Store.Close()
}
