// Package metrics provides broker client metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BrokerMetrics contains Prometheus metrics for alert broker clients
type BrokerMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	alertsFetched   *prometheus.CounterVec
	pageResultSize  *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	targetsImported *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewBrokerMetrics creates and registers new broker metrics
func NewBrokerMetrics(registry *prometheus.Registry) (*BrokerMetrics, error) {
	m := &BrokerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BrokerMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_requests_total",
			Help: "Total number of requests made to alert brokers",
		},
		[]string{"broker", "endpoint", "status"}, // endpoint: classifiers, objects, object; status: success, error, fallback
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_request_duration_seconds",
			Help:    "Time taken for alert broker requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
		},
		[]string{"broker", "endpoint"},
	)

	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_request_errors_total",
			Help: "Total number of alert broker request errors",
		},
		[]string{"broker", "endpoint", "error_type"}, // error_type: error category
	)

	m.alertsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_alerts_fetched_total",
			Help: "Total number of alerts returned by broker searches",
		},
		[]string{"broker"},
	)

	m.pageResultSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_page_result_size",
			Help:    "Number of alerts per fetched result page",
			Buckets: prometheus.ExponentialBuckets(BucketStart1, BucketFactor2, BucketCount10), // 1 to 512
		},
		[]string{"broker"},
	)

	m.breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broker_circuit_breaker_state",
			Help: "Circuit breaker state per broker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"broker"},
	)

	m.targetsImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_targets_imported_total",
			Help: "Total number of targets created from broker alerts",
		},
		[]string{"broker", "status"},
	)

	m.collectors = []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.requestErrors,
		m.alertsFetched,
		m.pageResultSize,
		m.breakerState,
		m.targetsImported,
	}

	return nil
}

// Describe implements the Collector interface
func (m *BrokerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *BrokerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordRequest records a broker request outcome
func (m *BrokerMetrics) RecordRequest(broker, endpoint, status string) {
	m.requestsTotal.WithLabelValues(broker, endpoint, status).Inc()
}

// RecordRequestDuration records the duration of a broker request
func (m *BrokerMetrics) RecordRequestDuration(broker, endpoint string, seconds float64) {
	m.requestDuration.WithLabelValues(broker, endpoint).Observe(seconds)
}

// RecordRequestError records a broker request error
func (m *BrokerMetrics) RecordRequestError(broker, endpoint, errorType string) {
	m.requestErrors.WithLabelValues(broker, endpoint, errorType).Inc()
}

// RecordPage records one fetched result page and its alert count
func (m *BrokerMetrics) RecordPage(broker string, alerts int) {
	m.alertsFetched.WithLabelValues(broker).Add(float64(alerts))
	m.pageResultSize.WithLabelValues(broker).Observe(float64(alerts))
}

// SetBreakerState records the circuit breaker state for a broker
func (m *BrokerMetrics) SetBreakerState(broker string, state int) {
	m.breakerState.WithLabelValues(broker).Set(float64(state))
}

// RecordTargetImport records a target created (or rejected) from an alert
func (m *BrokerMetrics) RecordTargetImport(broker, status string) {
	m.targetsImported.WithLabelValues(broker, status).Inc()
}

// For returns a Recorder bound to one broker. Operations map to the
// endpoint label.
func (m *BrokerMetrics) For(broker string) *BrokerRecorder {
	return &BrokerRecorder{metrics: m, broker: broker}
}

// BrokerRecorder is a Recorder scoped to a single broker.
type BrokerRecorder struct {
	metrics *BrokerMetrics
	broker  string
}

// RecordOperation implements Recorder.
func (r *BrokerRecorder) RecordOperation(operation, status string) {
	r.metrics.RecordRequest(r.broker, operation, status)
}

// RecordDuration implements Recorder.
func (r *BrokerRecorder) RecordDuration(operation string, seconds float64) {
	r.metrics.RecordRequestDuration(r.broker, operation, seconds)
}

// RecordError implements Recorder.
func (r *BrokerRecorder) RecordError(operation, errorType string) {
	r.metrics.RecordRequestError(r.broker, operation, errorType)
}

// RecordPage records a fetched result page for the bound broker.
func (r *BrokerRecorder) RecordPage(alerts int) {
	r.metrics.RecordPage(r.broker, alerts)
}

// SetBreakerState records the circuit breaker state for the bound broker.
func (r *BrokerRecorder) SetBreakerState(state int) {
	r.metrics.SetBreakerState(r.broker, state)
}
