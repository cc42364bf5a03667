// Package solar implements the simulation engine: sun position, plane-of-array
// irradiance, and the temperature-corrected power model. Every function here
// is pure; callers own I/O and concurrency.
package solar

import (
	"fmt"
	"math"
	"time"
)

// Geometry is the sun's position for one timestamp. Zenith is clamped to
// [0, 90]; a zenith of 90 means the sun is at or below the horizon.
type Geometry struct {
	Zenith  float64 // degrees
	Azimuth float64 // degrees from north, [0, 360)
}

// BelowHorizon is the geometry reported for rows that never reach the engine
var BelowHorizon = Geometry{Zenith: 90}

// EquationOfTime returns the equation of time in minutes for a day of the year
func EquationOfTime(dayOfYear int) float64 {
	b := degToRad(360.0 * float64(dayOfYear-81) / 365.0)
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// Declination returns the solar declination in degrees (Cooper's equation)
func Declination(dayOfYear int) float64 {
	return 23.45 * math.Sin(degToRad(360.0*float64(284+dayOfYear)/365.0))
}

// fractionalHour is the local civil clock reading in hours
func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600.0
}

// SolarTime converts a civil timestamp to apparent solar time in hours using
// the standard-meridian convention: 4 minutes per degree of longitude east of
// the site's reference meridian, plus the equation of time.
func SolarTime(t time.Time, site Site) float64 {
	offsetMin := 4.0*(site.Longitude-site.ReferenceMeridian) + EquationOfTime(t.YearDay())
	return fractionalHour(t) + offsetMin/60.0
}

// HourAngle returns the hour angle in degrees; negative in the morning
func HourAngle(t time.Time, site Site) float64 {
	return 15.0 * (SolarTime(t, site) - 12.0)
}

// Position computes the solar zenith and azimuth for a civil timestamp at the
// site. The timestamp's location is ignored: its wall clock is read as-is and
// interpreted against site.ReferenceMeridian.
func Position(t time.Time, site Site) (Geometry, error) {
	if t.IsZero() {
		return Geometry{}, fmt.Errorf("%w: zero timestamp", ErrInvalidInput)
	}
	for _, v := range []float64{site.Latitude, site.Longitude, site.ReferenceMeridian} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Geometry{}, fmt.Errorf("%w: non-finite site coordinate", ErrInvalidInput)
		}
	}

	doy := t.YearDay()
	ha := HourAngle(t, site)

	latRad := degToRad(site.Latitude)
	decRad := degToRad(Declination(doy))
	haRad := degToRad(ha)

	sinEl := math.Sin(latRad)*math.Sin(decRad) + math.Cos(latRad)*math.Cos(decRad)*math.Cos(haRad)
	elevation := math.Asin(clamp(sinEl, -1, 1))

	zenith := clamp(90.0-radToDeg(elevation), 0, 90)

	// cos(elevation) goes to zero with the sun overhead; the azimuth is
	// undefined there, so the argument is pinned instead of dividing by zero.
	azArg := 1.0
	if cosEl := math.Cos(elevation); cosEl > 1e-12 {
		azArg = (math.Sin(decRad)*math.Cos(latRad) - math.Cos(decRad)*math.Sin(latRad)*math.Cos(haRad)) / cosEl
	}
	azimuth := radToDeg(math.Acos(clamp(azArg, -1, 1)))
	if ha > 0 {
		azimuth = 360.0 - azimuth
	}

	return Geometry{Zenith: zenith, Azimuth: fixAngle(azimuth)}, nil
}
