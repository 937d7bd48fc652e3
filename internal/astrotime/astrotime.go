// Package astrotime converts between civil time and the astronomical time scales
// used by alert brokers (Modified Julian Date, Julian Date), and provides the
// small amount of positional astronomy needed for target visibility.
//
// All conversions treat UTC as the time scale; leap seconds are ignored, which
// is well below the precision brokers report.
package astrotime

import (
	"math"
	"time"
)

const (
	// MJDUnixEpoch is the Modified Julian Date of 1970-01-01T00:00:00Z.
	MJDUnixEpoch = 40587.0

	// JDOffset converts MJD to JD: JD = MJD + JDOffset.
	JDOffset = 2400000.5

	// MinMJD and MaxMJD bound the instants time.Time can carry through
	// TimeFromMJD: 0001-01-01 and 10000-01-01.
	MinMJD = -678575.0
	MaxMJD = 2973484.0

	// J2000 is the Julian Date of the J2000.0 epoch, 2000-01-01T12:00:00 TT.
	J2000 = 2451545.0

	secondsPerDay = 86400.0
	nanosPerDay   = secondsPerDay * 1e9

	degPerRad = 180.0 / math.Pi
	radPerDeg = math.Pi / 180.0
)

// MJD returns the Modified Julian Date of t.
func MJD(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Unix())/secondsPerDay + float64(t.Nanosecond())/nanosPerDay + MJDUnixEpoch
}

// JD returns the Julian Date of t.
func JD(t time.Time) float64 {
	return MJD(t) + JDOffset
}

// ValidMJD reports whether mjd is finite and within [MinMJD, MaxMJD).
func ValidMJD(mjd float64) bool {
	return !math.IsNaN(mjd) && mjd >= MinMJD && mjd < MaxMJD
}

// TimeFromMJD returns the UTC instant of a Modified Julian Date, rounded to the
// microsecond. Values outside the valid range are clamped to it; NaN yields
// the zero time.
func TimeFromMJD(mjd float64) time.Time {
	if math.IsNaN(mjd) {
		return time.Time{}
	}
	mjd = clamp(mjd, MinMJD, MaxMJD)

	days := mjd - MJDUnixEpoch
	whole := math.Floor(days)
	frac := days - whole

	sec := int64(whole) * int64(secondsPerDay)
	micros := math.Round(frac * secondsPerDay * 1e6)

	return time.Unix(sec, 0).Add(time.Duration(micros) * time.Microsecond).UTC()
}

// RelativeMJD returns the MJD of the instant the given number of hours before now.
// The offset is applied in days so arbitrarily large spans cannot overflow a Duration.
func RelativeMJD(now time.Time, hours float64) float64 {
	return MJD(now) - hours/24
}

// GMST returns Greenwich mean sidereal time in degrees [0, 360).
func GMST(t time.Time) float64 {
	d := JD(t) - J2000
	c := d / 36525.0
	gmst := 280.46061837 + 360.98564736629*d + 0.000387933*c*c - c*c*c/38710000.0
	return normalizeDegrees(gmst)
}

// LocalSiderealTime returns local mean sidereal time in degrees for an
// east-positive longitude.
func LocalSiderealTime(t time.Time, longitude float64) float64 {
	return normalizeDegrees(GMST(t) + longitude)
}

// Altitude returns the altitude in degrees of an object at (ra, dec) as seen
// from (lat, lon) at time t. Refraction is not applied.
func Altitude(ra, dec, lat, lon float64, t time.Time) float64 {
	ha := (LocalSiderealTime(t, lon) - ra) * radPerDeg
	decR := dec * radPerDeg
	latR := lat * radPerDeg

	sinAlt := math.Sin(decR)*math.Sin(latR) + math.Cos(decR)*math.Cos(latR)*math.Cos(ha)
	return math.Asin(clamp(sinAlt, -1, 1)) * degPerRad
}

// Airmass returns the plane-parallel airmass sec(z) for an altitude in degrees.
// ok is false when the object is at or below the horizon.
func Airmass(altitude float64) (airmass float64, ok bool) {
	if altitude <= 0 {
		return 0, false
	}
	zenith := (90 - altitude) * radPerDeg
	return 1 / math.Cos(zenith), true
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
