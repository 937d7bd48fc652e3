package alerce

import (
	"encoding/json"
	"time"
)

// Classifier names published by ALeRCE.
const (
	ClassifierLightCurve = "lc_classifier"
	ClassifierStamp      = "stamp_classifier"
)

// Alert is one ALeRCE object. Fields not modelled here remain available
// through Raw.
type Alert struct {
	OID         string   `json:"oid"`
	MeanRA      float64  `json:"meanra"`
	MeanDec     float64  `json:"meandec"`
	NDet        int      `json:"ndet"`
	FirstMJD    float64  `json:"firstmjd"`
	LastMJD     float64  `json:"lastmjd"`
	GRMaxCorr   *float64 `json:"g_r_max_corr"`
	Probability *float64 `json:"probability"`
	Class       string   `json:"class"`
	Classifier  string   `json:"classifier"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps a copy of the document.
func (a *Alert) UnmarshalJSON(data []byte) error {
	type plain Alert
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Alert(p)
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the original document when the alert was decoded.
func (a *Alert) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	type plain Alert
	return json.Marshal((*plain)(a))
}

// AlertID returns the ALeRCE object identifier.
func (a *Alert) AlertID() string { return a.OID }

// Raw returns the alert exactly as ALeRCE sent it.
func (a *Alert) Raw() json.RawMessage {
	if len(a.raw) > 0 {
		return a.raw
	}
	data, _ := a.MarshalJSON()
	return data
}

// ClassifierInfo describes one classifier and the classes it can assign.
type ClassifierInfo struct {
	ClassifierName    string   `json:"classifier_name"`
	ClassifierVersion string   `json:"classifier_version"`
	Classes           []string `json:"classes"`
}

// searchResponse is one page of the objects endpoint.
type searchResponse struct {
	Items   []*Alert `json:"items"`
	HasNext bool     `json:"has_next"`
	Page    int      `json:"page"`
	Next    int      `json:"next"` // null on the last page
	Total   int      `json:"total"`
}

// Config holds configuration for the ALeRCE client.
type Config struct {
	SiteURL                string        `json:"site_url"` // web frontend, for object links
	APIURL                 string        `json:"api_url"`
	LCClassifierVersion    string        `json:"lc_classifier_version"`
	StampClassifierVersion string        `json:"stamp_classifier_version"`
	Timeout                time.Duration `json:"timeout"`
	RateLimit              float64       `json:"rate_limit"` // requests per second, 0 disables
	Burst                  int           `json:"burst"`
	CacheTTL               time.Duration `json:"cache_ttl"`
	Breaker                BreakerConfig `json:"breaker"`
}

// BreakerConfig configures the optional circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `json:"enabled"`
	MaxFailures uint32        `json:"max_failures"`
	OpenTimeout time.Duration `json:"open_timeout"`
}
