package alerce

import (
	"context"
	"net/url"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

// BrokerName is the registry key of the ALeRCE broker.
const BrokerName = "ALeRCE"

// Broker adapts Client to the broker.Broker contract.
type Broker struct {
	client  *Client
	store   broker.TargetStore
	metrics *metrics.BrokerMetrics
}

var (
	_ broker.Broker         = (*Broker)(nil)
	_ broker.QueryValidator = (*Broker)(nil)
)

// NewBroker wires a client and the store used by ToTarget. store may be nil
// for read-only use.
func NewBroker(client *Client, store broker.TargetStore) *Broker {
	return &Broker{client: client, store: store}
}

// Register creates the ALeRCE broker and adds it to reg.
func Register(reg *broker.Registry, client *Client, store broker.TargetStore) (*Broker, error) {
	b := NewBroker(client, store)
	if err := reg.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetMetrics enables target import metrics.
func (b *Broker) SetMetrics(m *metrics.BrokerMetrics) {
	b.metrics = m
}

// Client returns the underlying API client.
func (b *Broker) Client() *Client {
	return b.client
}

// Name implements broker.Broker.
func (b *Broker) Name() string { return BrokerName }

// Form fetches classifier metadata and describes the query form.
func (b *Broker) Form(ctx context.Context) (*broker.Form, error) {
	metadata, err := b.client.FetchClassifiers(ctx)
	if err != nil {
		return nil, err
	}
	cfg := b.client.Config()
	return BuildQueryForm(metadata, cfg.LCClassifierVersion, cfg.StampClassifierVersion), nil
}

// ParseQuery validates submitted form values against the configured
// classifier versions.
func (b *Broker) ParseQuery(values url.Values) (QueryParameters, error) {
	cfg := b.client.Config()
	return ParseQuery(values, cfg.LCClassifierVersion, cfg.StampClassifierVersion)
}

// ValidateQuery implements broker.QueryValidator.
func (b *Broker) ValidateQuery(values url.Values) error {
	_, err := b.ParseQuery(values)
	return err
}

// FetchAlerts implements broker.Broker.
func (b *Broker) FetchAlerts(ctx context.Context, values url.Values) ([]broker.Alert, error) {
	params, err := b.ParseQuery(values)
	if err != nil {
		return nil, err
	}
	found, err := b.client.FetchAlerts(ctx, params)
	if err != nil {
		return nil, err
	}
	alerts := make([]broker.Alert, len(found))
	for i, a := range found {
		alerts[i] = a
	}
	return alerts, nil
}

// FetchAlert implements broker.Broker.
func (b *Broker) FetchAlert(ctx context.Context, id string) (broker.Alert, error) {
	a, err := b.client.FetchAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ToGenericAlert implements broker.Broker.
func (b *Broker) ToGenericAlert(alert broker.Alert) (broker.GenericAlert, error) {
	a, err := asAlert(alert)
	if err != nil {
		return broker.GenericAlert{}, err
	}
	return ToGenericAlert(a, b.client.ObjectURL), nil
}

// ToTarget creates and persists a sidereal target named after the object.
// An existing target with the same name yields a conflict error.
func (b *Broker) ToTarget(ctx context.Context, alert broker.Alert) (*datastore.Target, error) {
	a, err := asAlert(alert)
	if err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.Newf("no target store configured").
			Category(errors.CategoryConfiguration).
			Component("alerce").
			Build()
	}

	target := NewTarget(a)
	if err := b.store.CreateTarget(ctx, target); err != nil {
		b.recordImport(err)
		return nil, err
	}
	b.recordImport(nil)

	GetLogger().Info("target created from alert",
		logger.String("oid", a.OID),
		logger.Int("target_id", int(target.ID)))
	return target, nil
}

func (b *Broker) recordImport(err error) {
	if b.metrics == nil {
		return
	}
	status := metrics.StatusSuccess
	switch {
	case err == nil:
	case errors.IsCategory(err, errors.CategoryConflict):
		status = metrics.StatusConflict
	default:
		status = metrics.StatusError
	}
	b.metrics.RecordTargetImport(BrokerName, status)
}

func asAlert(alert broker.Alert) (*Alert, error) {
	a, ok := alert.(*Alert)
	if !ok || a == nil {
		return nil, errors.Newf("not an ALeRCE alert: %T", alert).
			Category(errors.CategoryValidation).
			Component("alerce").
			Build()
	}
	return a, nil
}
