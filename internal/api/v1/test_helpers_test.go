package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
)

var testNow = time.Date(2021, 4, 6, 18, 0, 0, 0, time.UTC)

// fakeAlert is a broker alert with a fixed payload
type fakeAlert struct {
	id  string
	raw string
}

func (a fakeAlert) AlertID() string      { return a.id }
func (a fakeAlert) Raw() json.RawMessage { return json.RawMessage(a.raw) }

// fakeBroker serves canned alerts and records the last search
type fakeBroker struct {
	name       string
	alerts     []broker.Alert
	fetchErr   error
	store      broker.TargetStore
	lastValues url.Values
}

func newFakeBroker(store broker.TargetStore) *fakeBroker {
	return &fakeBroker{
		name:  "ALeRCE",
		store: store,
		alerts: []broker.Alert{
			fakeAlert{id: "ZTF1", raw: `{"oid":"ZTF1","extra":true}`},
			fakeAlert{id: "ZTF2", raw: `{"oid":"ZTF2"}`},
		},
	}
}

func (b *fakeBroker) Name() string { return b.name }

func (b *fakeBroker) Form(context.Context) (*broker.Form, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return &broker.Form{Broker: b.name, Fieldsets: []broker.Fieldset{{
		Name:   "General Parameters",
		Fields: []broker.Field{{Name: "records", Label: "Records per page", Type: broker.FieldChoice}},
	}}}, nil
}

func (b *fakeBroker) ValidateQuery(values url.Values) error {
	if values.Get("records") == "7" {
		return errors.Newf("records: must be one of 20 100 500").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func (b *fakeBroker) FetchAlerts(_ context.Context, values url.Values) ([]broker.Alert, error) {
	b.lastValues = values
	if err := b.ValidateQuery(values); err != nil {
		return nil, err
	}
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return b.alerts, nil
}

func (b *fakeBroker) FetchAlert(_ context.Context, id string) (broker.Alert, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	for _, a := range b.alerts {
		if a.AlertID() == id {
			return a, nil
		}
	}
	return nil, errors.Newf("object %s not found", id).Category(errors.CategoryNotFound).Build()
}

func (b *fakeBroker) ToGenericAlert(a broker.Alert) (broker.GenericAlert, error) {
	return broker.GenericAlert{ID: a.AlertID(), Name: a.AlertID(), URL: "https://alerce.test/object/" + a.AlertID()}, nil
}

func (b *fakeBroker) ToTarget(ctx context.Context, a broker.Alert) (*datastore.Target, error) {
	t := &datastore.Target{Name: a.AlertID(), Type: datastore.TargetSidereal, RA: 150, Dec: -20, Epoch: datastore.DefaultEpoch}
	if err := b.store.CreateTarget(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// setupTestEnvironment builds an echo instance with the controller routes
func setupTestEnvironment(t *testing.T, opts ...Option) (*echo.Echo, *MockDataStore, *fakeBroker, *Controller) {
	t.Helper()

	e := echo.New()
	ds := new(MockDataStore)
	b := newFakeBroker(ds)

	reg := broker.NewRegistry()
	require.NoError(t, reg.Register(b))

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	c, err := New(e, reg, ds, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { ds.AssertExpectations(t) })
	return e, ds, b, c
}

// doRequest runs a request through the router
func doRequest(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), fmt.Sprintf("body: %s", rec.Body.String()))
	return v
}
