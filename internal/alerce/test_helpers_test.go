package alerce

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const (
	testAPIURL  = "https://api.alerce.test"
	testSiteURL = "https://alerce.test"
)

const classifiersJSON = `[
	{"classifier_name":"lc_classifier","classifier_version":"bulk_0.0.1","classes":["SNIa","SNII","AGN"]},
	{"classifier_name":"lc_classifier","classifier_version":"hierarchical_1.0.0","classes":["Transient","Stochastic"]},
	{"classifier_name":"stamp_classifier","classifier_version":"bulk_0.0.1","classes":["SN","AGN","VS","asteroid","bogus"]}
]`

// setupTestClient creates a client whose transport is an httpmock transport
func setupTestClient(t *testing.T, cfg Config, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()

	mock := httpmock.NewMockTransport()
	if cfg.APIURL == "" {
		cfg.APIURL = testAPIURL
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = testSiteURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := NewClient(cfg, append([]Option{WithTransport(mock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, mock
}

// alertJSON renders a minimal object record
func alertJSON(oid string, lastmjd float64) string {
	return fmt.Sprintf(`{"oid":%q,"meanra":150.25,"meandec":-20.5,"ndet":12,"firstmjd":59300.1,`+
		`"lastmjd":%v,"g_r_max_corr":0.3,"probability":0.87,"class":"SNIa","classifier":"lc_classifier","stellar":false}`,
		oid, lastmjd)
}

// pageJSON renders one page of search results
func pageJSON(page int, hasNext bool, next any, oids ...string) string {
	items := ""
	for i, oid := range oids {
		if i > 0 {
			items += ","
		}
		items += alertJSON(oid, 59310.5)
	}
	nextJSON := "null"
	if next != nil {
		nextJSON = fmt.Sprint(next)
	}
	return fmt.Sprintf(`{"total":100,"page":%d,"has_next":%t,"next":%s,"items":[%s]}`,
		page, hasNext, nextJSON, items)
}

// pagedResponder serves pages keyed by the requested page number
func pagedResponder(t *testing.T, pages map[string]string) httpmock.Responder {
	t.Helper()
	return func(req *http.Request) (*http.Response, error) {
		body, ok := pages[req.URL.Query().Get("page")]
		if !ok {
			return httpmock.NewStringResponse(http.StatusNotFound, `{"detail":"no such page"}`), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, body), nil
	}
}
