// Package broker defines the contract alert brokers implement and a registry
// the CLI and HTTP API use to look them up by name.
package broker

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/tphakala/tom-alerce/internal/datastore"
)

// Alert is one record returned by a broker, kept in the broker's own schema.
type Alert interface {
	// AlertID returns the broker's identifier for the alert.
	AlertID() string
	// Raw returns the alert JSON exactly as the broker sent it.
	Raw() json.RawMessage
}

// GenericAlert is the broker-independent summary shown in alert listings.
// Timestamp, Mag and Score are nil when the broker did not supply them.
type GenericAlert struct {
	Timestamp *time.Time `json:"timestamp"`
	URL       string     `json:"url"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	RA        float64    `json:"ra"`
	Dec       float64    `json:"dec"`
	Mag       *float64   `json:"mag"`
	Score     *float64   `json:"score"`
}

// TargetStore persists targets created from alerts.
type TargetStore interface {
	CreateTarget(ctx context.Context, target *datastore.Target) error
}

// Broker is an alert source.
type Broker interface {
	// Name is the unique registry key, e.g. "ALeRCE".
	Name() string

	// Form describes the query fields the broker accepts. It may perform
	// network I/O to populate choices.
	Form(ctx context.Context) (*Form, error)

	// FetchAlerts validates the submitted form values and runs the search.
	FetchAlerts(ctx context.Context, values url.Values) ([]Alert, error)

	// FetchAlert retrieves a single alert by identifier.
	FetchAlert(ctx context.Context, id string) (Alert, error)

	// ToGenericAlert normalizes an alert for display.
	ToGenericAlert(alert Alert) (GenericAlert, error)

	// ToTarget creates and persists a target from an alert.
	ToTarget(ctx context.Context, alert Alert) (*datastore.Target, error)
}

// QueryValidator is implemented by brokers that can check submitted form
// values without running the search, e.g. before saving a query.
type QueryValidator interface {
	ValidateQuery(values url.Values) error
}
