package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
)

var anyCtx = mock.Anything

func TestListBrokers(t *testing.T) {
	t.Parallel()

	e, _, _, _ := setupTestEnvironment(t)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"ALeRCE"}, body["brokers"])
}

func TestGetBrokerForm(t *testing.T) {
	t.Parallel()

	t.Run("case insensitive broker name", func(t *testing.T) {
		t.Parallel()
		e, _, _, _ := setupTestEnvironment(t)

		rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/alerce/form", "")
		require.Equal(t, http.StatusOK, rec.Code)

		form := decodeBody[broker.Form](t, rec)
		assert.Equal(t, "ALeRCE", form.Broker)
		assert.Equal(t, []string{"records"}, form.FieldNames())
	})

	t.Run("unknown broker", func(t *testing.T) {
		t.Parallel()
		e, _, _, _ := setupTestEnvironment(t)

		rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/antares/form", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		e, _, b, _ := setupTestEnvironment(t)
		b.fetchErr = errors.Newf("classifiers unavailable").Category(errors.CategoryNetwork).Build()

		rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/form", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestSearchAlerts(t *testing.T) {
	t.Parallel()

	e, _, b, _ := setupTestEnvironment(t)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/alerts?records=100&classearly=SN", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[AlertsResponse](t, rec)
	assert.Equal(t, "ALeRCE", resp.Broker)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Alerts, 2)
	assert.Equal(t, "ZTF1", resp.Alerts[0].ID)
	assert.Equal(t, "https://alerce.test/object/ZTF2", resp.Alerts[1].URL)

	assert.Equal(t, "100", b.lastValues.Get("records"))
	assert.Equal(t, "SN", b.lastValues.Get("classearly"))
}

func TestSearchAlerts_InvalidForm(t *testing.T) {
	t.Parallel()

	e, _, _, _ := setupTestEnvironment(t)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/alerts?records=7", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, resp.Error, "records: must be one of")
}

func TestSearchAlerts_EmptyResult(t *testing.T) {
	t.Parallel()

	e, _, b, _ := setupTestEnvironment(t)
	b.alerts = nil

	rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"broker":"ALeRCE","count":0,"alerts":[]}`, rec.Body.String())
}

func TestGetAlert(t *testing.T) {
	t.Parallel()

	e, _, _, _ := setupTestEnvironment(t)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/alerts/ZTF1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"oid":"ZTF1","extra":true}`, rec.Body.String())

	rec = doRequest(t, e, http.MethodGet, "/api/v1/brokers/ALeRCE/alerts/ZTF404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTargetFromAlert(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		e, ds, _, _ := setupTestEnvironment(t)
		ds.On("CreateTarget", anyCtx, mock.MatchedBy(func(tg *datastore.Target) bool {
			return tg.Name == "ZTF1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*datastore.Target).ID = 11
		}).Return(nil).Once()

		rec := doRequest(t, e, http.MethodPost, "/api/v1/brokers/ALeRCE/alerts/ZTF1/target", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		target := decodeBody[datastore.Target](t, rec)
		assert.Equal(t, uint(11), target.ID)
		assert.Equal(t, "ZTF1", target.Name)
		assert.Equal(t, datastore.TargetSidereal, target.Type)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		e, ds, _, _ := setupTestEnvironment(t)
		ds.On("CreateTarget", anyCtx, mock.Anything).Return(
			errors.Newf("target ZTF1 already exists").Category(errors.CategoryConflict).Build()).Once()

		rec := doRequest(t, e, http.MethodPost, "/api/v1/brokers/ALeRCE/alerts/ZTF1/target", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown alert never touches the store", func(t *testing.T) {
		t.Parallel()
		e, ds, _, _ := setupTestEnvironment(t)

		rec := doRequest(t, e, http.MethodPost, "/api/v1/brokers/ALeRCE/alerts/nope/target", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		ds.AssertNotCalled(t, "CreateTarget", mock.Anything, mock.Anything)
	})
}
