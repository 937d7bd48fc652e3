package query

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
)

const testAPIURL = "https://api.alerce.test"

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Alerce.APIURL = testAPIURL
	settings.Alerce.SiteURL = "https://alerce.test"
	settings.Alerce.Timeout = 5 * time.Second
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "tom.db")
	return settings
}

const searchPage = `{"total":2,"page":1,"has_next":false,"next":null,"items":[` +
	`{"oid":"ZTF21aaaaaaa","meanra":150.25,"meandec":-20.5,"ndet":12,"lastmjd":59310.5,"probability":0.87},` +
	`{"oid":"ZTF21bbbbbbb","meanra":10.5,"meandec":5.25,"ndet":3,"lastmjd":59311}]}`

func run(t *testing.T, settings *conf.Settings, mock *httpmock.MockTransport, args ...string) (string, error) {
	t.Helper()

	cmd := Command(settings, app.WithTransport(mock))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestQueryJSON(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	var gotQuery string
	mock.RegisterResponder(http.MethodGet, testAPIURL+"/objects", func(req *http.Request) (*http.Response, error) {
		gotQuery = req.URL.RawQuery
		return httpmock.NewStringResponse(http.StatusOK, searchPage), nil
	})

	out, err := run(t, testSettings(t), mock, "--nobs__gt", "5", "--records", "100", "--json")
	require.NoError(t, err)

	var alerts []broker.GenericAlert
	require.NoError(t, json.Unmarshal([]byte(out), &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, "ZTF21aaaaaaa", alerts[0].ID)
	assert.Equal(t, "https://alerce.test/object/ZTF21aaaaaaa", alerts[0].URL)

	assert.Contains(t, gotQuery, "page_size=100")
	assert.Contains(t, gotQuery, "ndet=5")
}

func TestQueryTableAndSave(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, testAPIURL+"/objects", httpmock.NewStringResponder(http.StatusOK, searchPage))

	settings := testSettings(t)
	out, err := run(t, settings, mock, "--sort_by", "lastmjd", "--save", "recent")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "ZTF21aaaaaaa")
	assert.Contains(t, lines[1], "2021-04-06 12:00:00")
	assert.Contains(t, lines[2], "ZTF21bbbbbbb")
	assert.Equal(t, "2 alert(s)", lines[3])

	store, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	queries, err := store.ListQueries(t.Context())
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "recent", queries[0].Name)
	values, err := queries[0].Values()
	require.NoError(t, err)
	assert.Equal(t, "lastmjd", values.Get("sort_by"))
}

func TestQueryInvalidFlag(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	_, err := run(t, testSettings(t), mock, "--max_pages", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pages")
	assert.Zero(t, mock.GetTotalCallCount())
}

func TestSearchFieldsSkipDisabled(t *testing.T) {
	t.Parallel()

	cmd := Command(&conf.Settings{})
	assert.Nil(t, cmd.Flags().Lookup("lc_classifier_version"))
	require.NotNil(t, cmd.Flags().Lookup("lc_classifier_class"))
	assert.Contains(t, cmd.Flags().Lookup("max_pages").Usage, "1, 5, 10, 15")
}
