package datastore

import (
	"time"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

// Metrics is a type alias for metrics.DatastoreMetrics
type Metrics = metrics.DatastoreMetrics

// SetMetrics attaches Prometheus metrics to the store. A nil value disables
// recording.
func (ds *DataStore) SetMetrics(m *Metrics) {
	ds.metrics = m
}

// observe records the outcome of one operation
func (ds *DataStore) observe(operation, table string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordDbOperationDuration(operation, table, time.Since(start).Seconds())

	status := metrics.StatusSuccess
	switch {
	case err == nil:
	case errors.IsCategory(err, errors.CategoryNotFound):
		status = metrics.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConflict):
		status = metrics.StatusConflict
	default:
		status = metrics.StatusError
	}
	ds.metrics.RecordDbOperation(operation, table, status)
	if err != nil {
		ds.metrics.RecordDbOperationError(operation, table, string(errors.CategoryOf(err)))
	}
}

// updateConnectionStats refreshes the connection pool gauges
func (ds *DataStore) updateConnectionStats() {
	if ds.metrics == nil || ds.DB == nil {
		return
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	ds.metrics.UpdateConnectionMetrics(stats.InUse, stats.Idle, stats.MaxOpenConnections)
}
