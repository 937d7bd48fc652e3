package alerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/observability/metrics"
)

// fakeStore keeps targets in memory and rejects duplicate names
type fakeStore struct {
	mu      sync.Mutex
	targets map[string]*datastore.Target
	nextID  uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{targets: make(map[string]*datastore.Target)}
}

func (s *fakeStore) CreateTarget(_ context.Context, target *datastore.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.targets[target.Name]; exists {
		return errors.Newf("target %q already exists", target.Name).
			Category(errors.CategoryConflict).
			Component("datastore").
			Build()
	}
	s.nextID++
	target.ID = s.nextID
	s.targets[target.Name] = target
	return nil
}

func setupTestBroker(t *testing.T, store broker.TargetStore) (*Broker, *httpmock.MockTransport) {
	t.Helper()
	client, mock := setupTestClient(t, Config{LCClassifierVersion: "bulk_0.0.1", StampClassifierVersion: "bulk_0.0.1"})
	return NewBroker(client, store), mock
}

func TestRegister(t *testing.T) {
	t.Parallel()

	client, _ := setupTestClient(t, Config{})
	reg := broker.NewRegistry()

	b, err := Register(reg, client, nil)
	require.NoError(t, err)
	assert.Same(t, client, b.Client())

	got, err := reg.Get(BrokerName)
	require.NoError(t, err)
	assert.Equal(t, BrokerName, got.Name())

	_, err = Register(reg, client, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
}

func TestBrokerForm(t *testing.T) {
	t.Parallel()

	b, mock := setupTestBroker(t, nil)
	mock.RegisterResponder(http.MethodGet, testAPIURL+"/classifiers",
		httpmock.NewStringResponder(http.StatusOK, classifiersJSON))

	form, err := b.Form(t.Context())
	require.NoError(t, err)

	stamp, ok := form.Field(FieldStampClassifierClass)
	require.True(t, ok)
	assert.Len(t, stamp.Choices, 6)

	version, ok := form.Field(FieldStampClassifierVersion)
	require.True(t, ok)
	assert.Equal(t, "bulk_0.0.1", version.Initial)
}

func TestBrokerFormUpstreamFailure(t *testing.T) {
	t.Parallel()

	b, mock := setupTestBroker(t, nil)
	mock.RegisterResponder(http.MethodGet, testAPIURL+"/classifiers",
		httpmock.NewStringResponder(http.StatusBadGateway, ``))

	form, err := b.Form(t.Context())
	require.Error(t, err)
	assert.Nil(t, form)
}

func TestBrokerFetchAlerts(t *testing.T) {
	t.Parallel()

	b, mock := setupTestBroker(t, nil)
	mock.RegisterResponder(http.MethodGet, testAPIURL+"/objects", func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "lc_classifier", q.Get("classifier"))
		assert.Equal(t, "bulk_0.0.1", q.Get("classifier_version"))
		assert.Equal(t, "SNIa", q.Get("class"))
		return httpmock.NewStringResponse(http.StatusOK, pageJSON(1, false, nil, "ZTF1", "ZTF2")), nil
	})

	alerts, err := b.FetchAlerts(t.Context(), url.Values{FieldLCClassifierClass: {"SNIa"}})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "ZTF1", alerts[0].AlertID())

	g, err := b.ToGenericAlert(alerts[1])
	require.NoError(t, err)
	assert.Equal(t, "https://alerce.test/object/ZTF2", g.URL)
}

func TestBrokerFetchAlertsInvalidForm(t *testing.T) {
	t.Parallel()

	b, mock := setupTestBroker(t, nil)

	_, err := b.FetchAlerts(t.Context(), url.Values{FieldRecords: {"7"}})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, mock.GetTotalCallCount())
}

func TestBrokerFetchAlertNotFound(t *testing.T) {
	t.Parallel()

	b, mock := setupTestBroker(t, nil)
	mock.RegisterResponder(http.MethodPost, testAPIURL+"/objects/ZTF404",
		httpmock.NewStringResponder(http.StatusNotFound, `{}`))

	alert, err := b.FetchAlert(t.Context(), "ZTF404")
	require.Error(t, err)
	assert.Nil(t, alert, "no typed nil behind the interface")
}

func TestBrokerToTarget(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	b, mock := setupTestBroker(t, store)
	mock.RegisterResponder(http.MethodPost, testAPIURL+"/objects/ZTF21abc",
		httpmock.NewStringResponder(http.StatusOK, alertJSON("ZTF21abc", 59310.5)))

	reg := prometheus.NewRegistry()
	bm, err := metrics.NewBrokerMetrics(reg)
	require.NoError(t, err)
	b.SetMetrics(bm)

	alert, err := b.FetchAlert(t.Context(), "ZTF21abc")
	require.NoError(t, err)

	target, err := b.ToTarget(t.Context(), alert)
	require.NoError(t, err)
	assert.Equal(t, uint(1), target.ID)
	assert.Equal(t, "ZTF21abc", target.Name)
	assert.Equal(t, datastore.TargetSidereal, target.Type)
	assert.Same(t, target, store.targets["ZTF21abc"])

	// same object again
	_, err = b.ToTarget(t.Context(), alert)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	expected := `
# HELP broker_targets_imported_total Total number of targets created from broker alerts
# TYPE broker_targets_imported_total counter
broker_targets_imported_total{broker="ALeRCE",status="conflict"} 1
broker_targets_imported_total{broker="ALeRCE",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "broker_targets_imported_total"))
}

func TestBrokerToTargetRejects(t *testing.T) {
	t.Parallel()

	readOnly, _ := setupTestBroker(t, nil)
	_, err := readOnly.ToTarget(t.Context(), &Alert{OID: "ZTF1"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	b, _ := setupTestBroker(t, newFakeStore())
	_, err = b.ToTarget(t.Context(), foreignAlert{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = b.ToGenericAlert(foreignAlert{})
	require.Error(t, err)

	var nilAlert *Alert
	_, err = b.ToTarget(t.Context(), nilAlert)
	require.Error(t, err)
}

type foreignAlert struct{}

func (foreignAlert) AlertID() string { return "other" }

func (foreignAlert) Raw() json.RawMessage { return nil }
