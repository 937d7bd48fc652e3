package visibility

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tom-alerce/internal/astrotime"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
)

var cerroPachon = conf.ObservatorySettings{
	Name:       "Cerro Pachon",
	Latitude:   -30.2407,
	Longitude:  -70.7366,
	Elevation:  2715,
	SampleStep: 15 * time.Minute,
}

func newTestCalculator(t *testing.T, site conf.ObservatorySettings) *Calculator {
	t.Helper()
	c, err := NewCalculator(site)
	require.NoError(t, err)
	return c
}

func TestNewCalculator(t *testing.T) {
	t.Parallel()

	_, err := NewCalculator(conf.ObservatorySettings{Latitude: 91})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = NewCalculator(conf.ObservatorySettings{Longitude: -181})
	require.Error(t, err)

	c := newTestCalculator(t, conf.ObservatorySettings{Latitude: 10})
	assert.Equal(t, defaultSampleStep, c.step)

	c = newTestCalculator(t, conf.ObservatorySettings{SampleStep: time.Second})
	assert.Equal(t, minSampleStep, c.step)
}

func TestNight(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	night, err := c.Night(time.Date(2021, 4, 6, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// evening twilight ends shortly before midnight UTC in Chile
	assert.Equal(t, 6, night.Dusk.Day())
	assert.True(t, night.Dusk.Hour() >= 22, "dusk %s", night.Dusk)
	assert.Equal(t, 7, night.Dawn.Day())
	assert.True(t, night.Dawn.Hour() >= 9 && night.Dawn.Hour() <= 11, "dawn %s", night.Dawn)
	assert.Equal(t, time.UTC, night.Dusk.Location())

	assert.True(t, night.Contains(night.Dusk))
	assert.True(t, night.Contains(night.Dusk.Add(time.Hour)))
	assert.False(t, night.Contains(night.Dawn))
}

func TestNightEastOfGreenwich(t *testing.T) {
	t.Parallel()

	sidingSpring := conf.ObservatorySettings{Name: "Siding Spring", Latitude: -31.2733, Longitude: 149.0644}
	c := newTestCalculator(t, sidingSpring)

	night, err := c.Night(time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, night.Dawn.After(night.Dusk))

	length := night.Dawn.Sub(night.Dusk)
	assert.True(t, length > 9*time.Hour && length < 14*time.Hour, "night length %s", length)
}

func TestNightCache(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	date := time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]Night, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := c.Night(date.Add(time.Duration(i) * time.Hour))
			assert.NoError(t, err)
			results[i] = n
		}(i)
	}
	wg.Wait()

	for _, n := range results[1:] {
		assert.Equal(t, results[0], n)
	}

	c.lock.RLock()
	assert.Len(t, c.nights, 1, "one entry per UTC date")
	c.lock.RUnlock()
}

func TestTonight(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	april6, err := c.Night(time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	april7, err := c.Night(time.Date(2021, 4, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// afternoon: the coming night
	got, err := c.Tonight(time.Date(2021, 4, 6, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, april6, got)

	// after midnight UTC but still dark: the night in progress
	got, err = c.Tonight(april6.Dawn.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, april6, got)

	// after dawn: the next night
	got, err = c.Tonight(april6.Dawn.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, april7, got)
}

func TestComputeTransitingTarget(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	night, err := c.Night(time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// crosses the zenith halfway through the night
	midnight := night.Dusk.Add(night.Dawn.Sub(night.Dusk) / 2)
	ra := astrotime.LocalSiderealTime(midnight, cerroPachon.Longitude)

	report, err := c.Compute("zenith", ra, cerroPachon.Latitude, night)
	require.NoError(t, err)

	want := int(night.Dawn.Sub(night.Dusk)/cerroPachon.SampleStep) + 1
	assert.Len(t, report.Samples, want)
	assert.Equal(t, night.Dusk, report.Samples[0].Time)
	assert.Equal(t, "Cerro Pachon", report.Observatory)

	require.NotNil(t, report.BestAirmass)
	assert.InDelta(t, 1.0, *report.BestAirmass, 0.01)
	require.NotNil(t, report.BestTime)
	assert.WithinDuration(t, midnight, *report.BestTime, cerroPachon.SampleStep)
	assert.True(t, report.Observable())

	for _, s := range report.Samples {
		if s.Altitude <= 0 {
			assert.Nil(t, s.Airmass)
		} else {
			require.NotNil(t, s.Airmass)
			assert.GreaterOrEqual(t, *s.Airmass, 1.0)
		}
	}
}

func TestComputeNeverRises(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	night, err := c.Night(time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// circumpolar north, always below a southern horizon
	report, err := c.Compute("polaris", 37.95, 89.26, night)
	require.NoError(t, err)
	assert.Nil(t, report.BestAirmass)
	assert.Nil(t, report.BestTime)
	assert.False(t, report.Observable())
	for _, s := range report.Samples {
		assert.Negative(t, s.Altitude)
		assert.Nil(t, s.Airmass)
	}
}

func TestComputeAirmassLimit(t *testing.T) {
	t.Parallel()

	site := cerroPachon
	site.AirmassLimit = 1.5
	c := newTestCalculator(t, site)
	night, err := c.Night(time.Date(2021, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	midnight := night.Dusk.Add(night.Dawn.Sub(night.Dusk) / 2)
	ra := astrotime.LocalSiderealTime(midnight, site.Longitude)

	report, err := c.Compute("zenith", ra, site.Latitude, night)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, report.AirmassLimit, 0)

	var observable, visibleButTooLow int
	for _, s := range report.Samples {
		switch {
		case s.Observable:
			observable++
			assert.LessOrEqual(t, *s.Airmass, 1.5)
		case s.Airmass != nil:
			visibleButTooLow++
			assert.Greater(t, *s.Airmass, 1.5)
		}
	}
	assert.Positive(t, observable)
	assert.Positive(t, visibleButTooLow, "a ~11h night includes samples far from transit")
}

func TestComputeInvalidCoordinates(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	_, err := c.Compute("bad", 10, 95, Night{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestForTarget(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, cerroPachon)
	now := time.Date(2021, 4, 6, 18, 0, 0, 0, time.UTC)

	report, err := c.ForTarget(&datastore.Target{Name: "ZTF21aaxtctv", Type: datastore.TargetSidereal, RA: 150.25, Dec: -20.5}, now)
	require.NoError(t, err)
	assert.Equal(t, "ZTF21aaxtctv", report.Target)
	assert.True(t, report.Night.Dusk.After(now))

	_, err = c.ForTarget(&datastore.Target{Name: "comet", Type: datastore.TargetNonSidereal}, now)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = c.ForTarget(nil, now)
	require.Error(t, err)
}
