package astrotime

import (
	"fmt"
	"math"

	"github.com/tphakala/tom-alerce/internal/errors"
)

// Sexagesimal output formats.
const (
	FormatHMS = "hms" // hours, for right ascension
	FormatDMS = "dms" // signed degrees, for declination
)

const millisPerUnit = 3600 * 1000

// DegToSexagesimal formats a coordinate given in degrees. FormatHMS renders
// HH:MM:SS.sss (value / 15); FormatDMS renders ±DD:MM:SS.sss. Seconds are
// rounded to the millisecond with carry into minutes and the leading unit.
func DegToSexagesimal(value float64, format string) (string, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", errors.Newf("coordinate must be finite, got %v", value).
			Category(errors.CategoryValidation).
			Build()
	}

	switch format {
	case FormatHMS:
		sign, h, m, s := split(value / 15)
		prefix := ""
		if sign < 0 {
			prefix = "-"
		}
		return fmt.Sprintf("%s%02d:%02d:%06.3f", prefix, h, m, s), nil
	case FormatDMS:
		sign, d, m, s := split(value)
		prefix := "+"
		if sign < 0 {
			prefix = "-"
		}
		return fmt.Sprintf("%s%02d:%02d:%06.3f", prefix, d, m, s), nil
	default:
		return "", errors.Newf("format must be %q or %q, got %q", FormatHMS, FormatDMS, format).
			Category(errors.CategoryValidation).
			Context("format", format).
			Build()
	}
}

// split decomposes v into sign, whole units, minutes and seconds after
// rounding to the millisecond of arc (or time).
func split(v float64) (sign, units, minutes int, seconds float64) {
	sign = 1
	if v < 0 {
		sign = -1
		v = -v
	}

	total := int64(math.Round(v * millisPerUnit))
	if total == 0 {
		sign = 1
	}

	units = int(total / millisPerUnit)
	rem := total % millisPerUnit
	minutes = int(rem / 60000)
	seconds = float64(rem%60000) / 1000

	return sign, units, minutes, seconds
}
