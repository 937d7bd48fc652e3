package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
)

func TestSaveQuery(t *testing.T) {
	t.Parallel()

	e, ds, _, _ := setupTestEnvironment(t)
	ds.On("SaveQuery", anyCtx, mock.MatchedBy(func(q *datastore.BrokerQuery) bool {
		v, err := q.Values()
		return err == nil && q.Name == "bright SNe" && q.Broker == "ALeRCE" &&
			v.Get("records") == "100" && !v.Has("classearly")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*datastore.BrokerQuery).ID = 4
	}).Return(nil).Once()

	body := `{"name":"  bright SNe ","broker":"alerce","parameters":{"records":"100","classearly":""}}`
	rec := doRequest(t, e, http.MethodPost, "/api/v1/queries", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	saved := decodeBody[datastore.BrokerQuery](t, rec)
	assert.Equal(t, uint(4), saved.ID)
	assert.Equal(t, "ALeRCE", saved.Broker, "broker name is canonicalized")
}

func TestSaveQuery_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest},
		{"missing name", `{"name":"   ","broker":"ALeRCE"}`, http.StatusBadRequest},
		{"missing broker", `{"name":"q"}`, http.StatusBadRequest},
		{"unknown broker", `{"name":"q","broker":"Lasair"}`, http.StatusBadRequest},
		{"invalid parameters", `{"name":"q","broker":"ALeRCE","parameters":{"records":"7"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, ds, _, _ := setupTestEnvironment(t)

			rec := doRequest(t, e, http.MethodPost, "/api/v1/queries", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			ds.AssertNotCalled(t, "SaveQuery", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveQuery_DuplicateName(t *testing.T) {
	t.Parallel()

	e, ds, _, _ := setupTestEnvironment(t)
	ds.On("SaveQuery", anyCtx, mock.Anything).Return(
		errors.Newf("query name already exists").Category(errors.CategoryConflict).Build()).Once()

	rec := doRequest(t, e, http.MethodPost, "/api/v1/queries", `{"name":"q","broker":"ALeRCE"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListQueries(t *testing.T) {
	t.Parallel()

	e, ds, _, _ := setupTestEnvironment(t)
	ds.On("ListQueries", anyCtx).Return([]datastore.BrokerQuery{
		{ID: 2, Name: "b", Broker: "ALeRCE"},
		{ID: 1, Name: "a", Broker: "ALeRCE"},
	}, nil).Once()

	rec := doRequest(t, e, http.MethodGet, "/api/v1/queries", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[struct {
		Queries []datastore.BrokerQuery `json:"queries"`
		Count   int                     `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "b", body.Queries[0].Name)
}

func savedQuery(t *testing.T, id uint, values url.Values) *datastore.BrokerQuery {
	t.Helper()
	q := &datastore.BrokerQuery{ID: id, Name: "saved", Broker: "ALeRCE"}
	require.NoError(t, q.SetValues(values))
	return q
}

func TestRunQuery(t *testing.T) {
	t.Parallel()

	e, ds, b, _ := setupTestEnvironment(t)
	ds.On("GetQuery", anyCtx, uint(4)).Return(savedQuery(t, 4, url.Values{"records": {"500"}}), nil).Once()
	ds.On("MarkQueryRun", anyCtx, uint(4), testNow).Return(nil).Once()

	rec := doRequest(t, e, http.MethodPost, "/api/v1/queries/4/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[QueryRunResponse](t, rec)
	require.NotNil(t, resp.Query)
	require.NotNil(t, resp.Query.LastRun)
	assert.True(t, resp.Query.LastRun.Equal(testNow))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "500", b.lastValues.Get("records"))
}

func TestRunQuery_Failures(t *testing.T) {
	t.Parallel()

	t.Run("missing query", func(t *testing.T) {
		t.Parallel()
		e, ds, _, _ := setupTestEnvironment(t)
		ds.On("GetQuery", anyCtx, uint(8)).Return(nil,
			errors.Newf("query 8 not found").Category(errors.CategoryNotFound).Build()).Once()

		rec := doRequest(t, e, http.MethodPost, "/api/v1/queries/8/run", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("corrupt parameters", func(t *testing.T) {
		t.Parallel()
		e, ds, _, _ := setupTestEnvironment(t)
		ds.On("GetQuery", anyCtx, uint(5)).Return(&datastore.BrokerQuery{
			ID: 5, Name: "broken", Broker: "ALeRCE", Parameters: "{not json",
		}, nil).Once()

		rec := doRequest(t, e, http.MethodPost, "/api/v1/queries/5/run", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("upstream failure is not recorded as a run", func(t *testing.T) {
		t.Parallel()
		e, ds, b, _ := setupTestEnvironment(t)
		b.fetchErr = errors.Newf("alerce returned 503").Category(errors.CategoryNetwork).Build()
		ds.On("GetQuery", anyCtx, uint(6)).Return(savedQuery(t, 6, url.Values{}), nil).Once()

		rec := doRequest(t, e, http.MethodPost, "/api/v1/queries/6/run", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		ds.AssertNotCalled(t, "MarkQueryRun", mock.Anything, mock.Anything, mock.Anything)
	})
}
