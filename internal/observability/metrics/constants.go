// Package metrics provides constants used across metric definitions.
package metrics

// Operation names recorded by broker clients. They double as the "endpoint"
// label of the broker request metrics.
const (
	// OpClassifiers is a classifier metadata request.
	OpClassifiers = "classifiers"
	// OpObjects is one page of an alert search.
	OpObjects = "objects"
	// OpObject is a single alert lookup.
	OpObject = "object"
	// OpClassifierCache is a classifier metadata cache fallback.
	OpClassifierCache = "classifier_cache"
)

// Status label values.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusFallback = "fallback"
	StatusConflict = "conflict"
	StatusNotFound = "not_found"
)

// Datastore operation and table label values.
const (
	LabelCreate = "create"
	LabelGet    = "get"
	LabelList   = "list"
	LabelUpdate = "update"
	LabelDelete = "delete"

	TableTargets     = "targets"
	TableTargetNames = "target_names"
	TableTargetLists = "target_lists"
	TableQueries     = "broker_queries"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100B is the starting bucket for 100 byte histograms (100B to ~100MB range).
	BucketStart100B = 100.0
	// BucketStart1 is the starting bucket for result count histograms.
	BucketStart1 = 1.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketFactor10 is the exponential growth factor of 10 for larger ranges.
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
	BucketCount15 = 15
)
