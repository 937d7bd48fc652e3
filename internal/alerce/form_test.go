package alerce

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/errors"
)

func testMetadata(t *testing.T) []ClassifierInfo {
	t.Helper()
	var metadata []ClassifierInfo
	require.NoError(t, json.Unmarshal([]byte(classifiersJSON), &metadata))
	return metadata
}

func TestClassChoices(t *testing.T) {
	t.Parallel()

	metadata := testMetadata(t)

	lc := ClassChoices(metadata, ClassifierLightCurve, "bulk_0.0.1")
	require.Len(t, lc, 4)
	assert.Equal(t, broker.Choice{}, lc[0], "empty choice comes first")
	assert.Equal(t, broker.Choice{Value: "SNIa", Label: "SNIa"}, lc[1])
	assert.Equal(t, "AGN", lc[3].Value)

	hier := ClassChoices(metadata, ClassifierLightCurve, "hierarchical_1.0.0")
	assert.Len(t, hier, 3)

	stamp := ClassChoices(metadata, ClassifierStamp, "bulk_0.0.1")
	assert.Len(t, stamp, 6)

	none := ClassChoices(metadata, ClassifierStamp, "unknown")
	assert.Equal(t, []broker.Choice{{}}, none)

	assert.Len(t, ClassChoices(nil, ClassifierStamp, "bulk_0.0.1"), 1)
}

func TestBuildQueryForm(t *testing.T) {
	t.Parallel()

	form := BuildQueryForm(testMetadata(t), "bulk_0.0.1", "bulk_0.0.1")
	assert.Equal(t, BrokerName, form.Broker)
	require.Len(t, form.Fieldsets, 5)

	names := []string{}
	for _, fs := range form.Fieldsets {
		names = append(names, fs.Name)
	}
	assert.Equal(t, []string{
		"Number of Epochs", "Classification Filters", "Location Filters", "Time Filters", "General Parameters",
	}, names)

	assert.ElementsMatch(t, []string{
		FieldNobsGT, FieldNobsLT, FieldLCClassifierClass, FieldStampClassifierClass, FieldProbability,
		FieldLCClassifierVersion, FieldStampClassifierVersion, FieldRA, FieldDec, FieldSR,
		FieldRelativeMJDGT, FieldMJDGT, FieldMJDLT, FieldSortBy, FieldRecords, FieldMaxPages,
	}, form.FieldNames())

	version, ok := form.Field(FieldLCClassifierVersion)
	require.True(t, ok)
	assert.True(t, version.Disabled)
	assert.Equal(t, "bulk_0.0.1", version.Initial)

	lc, ok := form.Field(FieldLCClassifierClass)
	require.True(t, ok)
	assert.Equal(t, broker.FieldChoice, lc.Type)
	assert.Len(t, lc.Choices, 4)

	pages, ok := form.Field(FieldMaxPages)
	require.True(t, ok)
	assert.Equal(t, []broker.Choice{
		{Value: "1", Label: "1"}, {Value: "5", Label: "5"}, {Value: "10", Label: "10"}, {Value: "15", Label: "15"},
	}, pages.Choices)

	sortBy, ok := form.Field(FieldSortBy)
	require.True(t, ok)
	assert.Equal(t, "Number Of Epochs", sortBy.Choices[0].Label)

	ra, ok := form.Field(FieldRA)
	require.True(t, ok)
	assert.Equal(t, "RA (Degrees)", ra.Placeholder)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	values := url.Values{
		FieldNobsGT:               {"3"},
		FieldNobsLT:               {" 40 "},
		FieldStampClassifierClass: {"SN"},
		FieldProbability:          {"0.6"},
		FieldRA:                   {"150.5"},
		FieldDec:                  {"-20.25"},
		FieldSR:                   {"0.01"},
		FieldRelativeMJDGT:        {"48"},
		FieldSortBy:               {"probability"},
		FieldMaxPages:             {"10"},
		FieldRecords:              {"500"},
		FieldLCClassifierVersion:  {"forged"},
		"unknown":                 {"ignored"},
	}

	p, err := ParseQuery(values, "lc_v", "stamp_v")
	require.NoError(t, err)
	assert.Equal(t, QueryParameters{
		NobsGT:                 3,
		NobsLT:                 40,
		StampClassifierClass:   "SN",
		LCClassifierVersion:    "lc_v",
		StampClassifierVersion: "stamp_v",
		Probability:            0.6,
		RA:                     150.5,
		Dec:                    -20.25,
		SR:                     0.01,
		RelativeMJDGT:          48,
		SortBy:                 "probability",
		MaxPages:               10,
		Records:                500,
	}, p)
}

func TestParseQueryEmpty(t *testing.T) {
	t.Parallel()

	p, err := ParseQuery(url.Values{FieldRA: {""}}, "v1", "v2")
	require.NoError(t, err)
	assert.Equal(t, QueryParameters{LCClassifierVersion: "v1", StampClassifierVersion: "v2"}, p)
	assert.Equal(t, 1, p.pageLimit())
}

func TestParseQueryRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"non-numeric count", url.Values{FieldNobsGT: {"many"}}, "nobs__gt: enter a whole number"},
		{"non-numeric float", url.Values{FieldRA: {"12h"}}, "ra: enter a number"},
		{"negative count", url.Values{FieldNobsLT: {"-1"}}, "nobs__lt: must be at least 0"},
		{"probability above one", url.Values{FieldProbability: {"1.5"}}, "probability: must be at most 1"},
		{"declination out of range", url.Values{FieldDec: {"-91"}}, "dec: must be at least -90"},
		{"unknown sort", url.Values{FieldSortBy: {"name"}}, "sort_by: must be one of ndet lastmjd probability"},
		{"page count not offered", url.Values{FieldMaxPages: {"3"}}, "max_pages: must be one of 1 5 10 15"},
		{"page size not offered", url.Values{FieldRecords: {"50"}}, "records: must be one of 20 100 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseQuery(tt.values, "v1", "v2")
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
			assert.Contains(t, err.Error(), tt.want)

			var ee *errors.EnhancedError
			require.True(t, errors.As(err, &ee))
			assert.Contains(t, ee.GetContext(), "fields")
		})
	}
}
