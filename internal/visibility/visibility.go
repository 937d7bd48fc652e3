// Package visibility computes when a sidereal target can be observed from the
// configured observatory during a night, bounded by civil dusk and dawn.
package visibility

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/tphakala/tom-alerce/internal/astrotime"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
)

const (
	defaultSampleStep = 30 * time.Minute
	minSampleStep     = time.Minute
	dateKeyFormat     = "2006-01-02"
)

// Night is the dark interval starting at civil dusk.
type Night struct {
	Dusk time.Time `json:"dusk"`
	Dawn time.Time `json:"dawn"`
}

// Contains reports whether t falls inside the night.
func (n Night) Contains(t time.Time) bool {
	return !t.Before(n.Dusk) && t.Before(n.Dawn)
}

// Sample is the position of a target at one instant. Airmass is nil while the
// target is below the horizon.
type Sample struct {
	Time       time.Time `json:"time"`
	Altitude   float64   `json:"altitude"`
	Airmass    *float64  `json:"airmass"`
	Observable bool      `json:"observable"`
}

// Report is the visibility of one target over one night.
type Report struct {
	Target       string     `json:"target"`
	Observatory  string     `json:"observatory"`
	RA           float64    `json:"ra"`
	Dec          float64    `json:"dec"`
	Night        Night      `json:"night"`
	Samples      []Sample   `json:"samples"`
	BestAirmass  *float64   `json:"best_airmass"`
	BestTime     *time.Time `json:"best_time"`
	AirmassLimit float64    `json:"airmass_limit,omitempty"`
}

// Calculator computes night windows and target visibility for one site.
// Night windows are cached per UTC date. Safe for concurrent use.
type Calculator struct {
	site     conf.ObservatorySettings
	observer astral.Observer
	step     time.Duration

	lock   sync.RWMutex
	nights map[string]Night
}

// NewCalculator creates a calculator for the given observatory.
func NewCalculator(site conf.ObservatorySettings) (*Calculator, error) {
	if site.Latitude < -90 || site.Latitude > 90 || site.Longitude < -180 || site.Longitude > 180 {
		return nil, errors.Newf("observatory coordinates out of range: lat %g, lon %g", site.Latitude, site.Longitude).
			Category(errors.CategoryConfiguration).
			Component("visibility").
			Build()
	}

	step := site.SampleStep
	if step <= 0 {
		step = defaultSampleStep
	}
	step = max(step, minSampleStep)

	return &Calculator{
		site:     site,
		observer: astral.Observer{Latitude: site.Latitude, Longitude: site.Longitude},
		step:     step,
		nights:   make(map[string]Night),
	}, nil
}

// Night returns the night that begins at civil dusk on the UTC date of date.
func (c *Calculator) Night(date time.Time) (Night, error) {
	day := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)
	key := day.Format(dateKeyFormat)

	c.lock.RLock()
	night, ok := c.nights[key]
	c.lock.RUnlock()
	if ok {
		return night, nil
	}

	night, err := c.calculateNight(day)
	if err != nil {
		return Night{}, err
	}

	c.lock.Lock()
	c.nights[key] = night
	c.lock.Unlock()

	return night, nil
}

func (c *Calculator) calculateNight(day time.Time) (Night, error) {
	dusk, err := astral.Dusk(c.observer, day, astral.DepressionCivil)
	if err != nil {
		return Night{}, c.noNightError(day, "dusk", err)
	}
	if dusk.IsZero() {
		return Night{}, c.noNightError(day, "dusk", fmt.Errorf("sun does not reach civil depression"))
	}

	// the following dawn falls on the same UTC date for sites east of Greenwich
	for _, d := range []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)} {
		dawn, err := astral.Dawn(c.observer, d, astral.DepressionCivil)
		if err != nil {
			return Night{}, c.noNightError(d, "dawn", err)
		}
		if !dawn.IsZero() && dawn.After(dusk) {
			return Night{Dusk: dusk.UTC(), Dawn: dawn.UTC()}, nil
		}
	}
	return Night{}, c.noNightError(day, "dawn", fmt.Errorf("no dawn follows dusk at %s", dusk.UTC().Format(time.RFC3339)))
}

func (c *Calculator) noNightError(day time.Time, event string, err error) error {
	return errors.New(fmt.Errorf("failed to calculate civil %s: %w", event, err)).
		Category(errors.CategoryValidation).
		Context("date", day.Format(dateKeyFormat)).
		Context("latitude", c.site.Latitude).
		Component("visibility").
		Build()
}

// Tonight returns the night in progress at now, or the next one.
func (c *Calculator) Tonight(now time.Time) (Night, error) {
	for offset := -1; offset <= 1; offset++ {
		night, err := c.Night(now.AddDate(0, 0, offset))
		if err != nil {
			return Night{}, err
		}
		if now.Before(night.Dawn) {
			return night, nil
		}
	}
	return c.Night(now.AddDate(0, 0, 2))
}

// Compute samples the altitude and airmass of (ra, dec) across night.
func (c *Calculator) Compute(name string, ra, dec float64, night Night) (*Report, error) {
	if math.IsNaN(ra) || math.IsNaN(dec) || dec < -90 || dec > 90 {
		return nil, errors.Newf("invalid target coordinates: ra %g, dec %g", ra, dec).
			Category(errors.CategoryValidation).
			Component("visibility").
			Build()
	}

	report := &Report{
		Target:       name,
		Observatory:  c.site.Name,
		RA:           ra,
		Dec:          dec,
		Night:        night,
		AirmassLimit: c.site.AirmassLimit,
	}

	for t := night.Dusk; !t.After(night.Dawn); t = t.Add(c.step) {
		alt := astrotime.Altitude(ra, dec, c.site.Latitude, c.site.Longitude, t)
		s := Sample{Time: t, Altitude: alt}
		if am, ok := astrotime.Airmass(alt); ok {
			s.Airmass = &am
			s.Observable = c.site.AirmassLimit == 0 || am <= c.site.AirmassLimit
			if report.BestAirmass == nil || am < *report.BestAirmass {
				best, at := am, t
				report.BestAirmass = &best
				report.BestTime = &at
			}
		}
		report.Samples = append(report.Samples, s)
	}

	GetLogger().Debug("visibility computed",
		logger.String("target", name),
		logger.Int("samples", len(report.Samples)),
		logger.Bool("visible", report.BestAirmass != nil))

	return report, nil
}

// ForTarget computes the visibility of a stored target during the night in
// progress at now, or the next one.
func (c *Calculator) ForTarget(target *datastore.Target, now time.Time) (*Report, error) {
	if target == nil {
		return nil, errors.Newf("target is required").
			Category(errors.CategoryValidation).
			Component("visibility").
			Build()
	}
	if target.Type != datastore.TargetSidereal {
		return nil, errors.Newf("visibility is only available for sidereal targets, got %s", target.Type).
			Category(errors.CategoryValidation).
			Context("target_id", target.ID).
			Component("visibility").
			Build()
	}

	night, err := c.Tonight(now)
	if err != nil {
		return nil, err
	}
	return c.Compute(target.Name, target.RA, target.Dec, night)
}

// Observable reports whether any sample met the airmass limit.
func (r *Report) Observable() bool {
	for _, s := range r.Samples {
		if s.Observable {
			return true
		}
	}
	return false
}
