package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// solarConstant is the mean extraterrestrial irradiance, W/m²
const solarConstant = 1361.0

// linkeTurbidity is the clear-sky turbidity assumed by the reference model.
// Hazy, polluted air pushes real skies well above it, which is what the
// clearness index exposes.
const linkeTurbidity = 2.0

// civilToUTC reads t's wall clock as local time on the site's reference
// meridian and returns the same instant in UTC.
func civilToUTC(t time.Time, site Site) time.Time {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	offset := time.Duration(site.ReferenceMeridian / 15.0 * float64(time.Hour))
	return wall.Add(-offset)
}

// preciseEquationOfTime is the NOAA equation of time in minutes. It is only
// used for the clear-sky reference, never for the simulated geometry.
func preciseEquationOfTime(utc time.Time) float64 {
	T := (julian.TimeToJD(utc) - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4
}

// ClearSkyGHI estimates cloud- and pollution-free global horizontal
// irradiance (W/m²) for the site with a simplified Ineichen-Perez model.
// Comparing it with measured GHI gives the attenuation the simulation is
// trying to explain.
func ClearSkyGHI(t time.Time, site Site, altitudeM float64) float64 {
	if t.IsZero() {
		return 0
	}
	utc := civilToUTC(t, site)
	n := utc.YearDay()

	delta := 23.45 * math.Sin(degToRad(360.0/365.0*float64(n-81)))

	utcMin := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60.0
	tst := utcMin + 4*site.Longitude + preciseEquationOfTime(utc)
	H := tst/4 - 180

	latRad := degToRad(site.Latitude)
	cosZ := math.Sin(latRad)*math.Sin(degToRad(delta)) +
		math.Cos(latRad)*math.Cos(degToRad(delta))*math.Cos(degToRad(H))
	thetaZ := radToDeg(math.Acos(clamp(cosZ, -1, 1)))
	if thetaZ >= 90.0 {
		return 0
	}

	g0 := solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*(float64(n)-3)/365.0)))

	// Kasten-Young air mass
	am := 1.0 / (math.Cos(degToRad(thetaZ)) + 0.50572*math.Pow(96.07995-thetaZ, -1.6364))
	dni := g0 * 0.7 * math.Exp(-0.027*am*linkeTurbidity*math.Exp(-altitudeM/8000.0))

	fh := 0.1 + 0.05*math.Sin(math.Pi*float64(n-100)/365.0)
	dhi := fh * g0 * math.Sin(degToRad(thetaZ))

	return math.Max(0, dni*math.Cos(degToRad(thetaZ))+dhi)
}

// ClearnessIndex is measured GHI over clear-sky GHI, capped at 1.5 to keep
// cloud-edge enhancement spikes from dominating averages. It is zero when the
// clear-sky reference is zero.
func ClearnessIndex(ghi, clearSky float64) float64 {
	ghi = finiteOrZero(ghi)
	if clearSky <= 0 || ghi <= 0 {
		return 0
	}
	return math.Min(ghi/clearSky, 1.5)
}
