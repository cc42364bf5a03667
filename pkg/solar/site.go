package solar

import (
	"fmt"
	"math"
)

const (
	// DefaultAlbedo is the ground reflectance used when a site doesn't set one
	DefaultAlbedo = 0.2

	// DefaultInverterEfficiency is the fixed DC->AC conversion factor used by
	// deployments that model inverter losses.
	DefaultInverterEfficiency = 0.96
)

// Site describes the location and the panel being simulated. A Site is built
// once per run and passed by value into every engine call; nothing in this
// package mutates it.
type Site struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive

	Tilt         float64 // degrees from horizontal
	PanelAzimuth float64 // degrees from north

	RatedPower      float64 // watts at STC
	TempCoefficient float64 // fractional power change per °C, negative
	Albedo          float64

	// ReferenceMeridian is the meridian of the clock the timestamps are
	// expressed in, 15° per hour of UTC offset (105 for UTC+7).
	ReferenceMeridian float64

	// IncludeAzimuthTerm selects the full angle-of-incidence formula. When
	// false the panel is treated as facing the sun's azimuth and only the
	// zenith/tilt product is used.
	IncludeAzimuthTerm bool

	// InverterEfficiency converts DC to AC power. Nil means report DC.
	InverterEfficiency *float64
}

// MeridianForOffset returns the standard meridian for a UTC offset in hours
func MeridianForOffset(utcOffsetHours float64) float64 {
	return 15.0 * utcOffsetHours
}

// Validate reports ErrInvalidInput for any non-finite or out-of-range field
func (s Site) Validate() error {
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"latitude", s.Latitude, -90, 90},
		{"longitude", s.Longitude, -180, 180},
		{"tilt", s.Tilt, 0, 90},
		{"panel azimuth", s.PanelAzimuth, 0, 360},
		{"temperature coefficient", s.TempCoefficient, -0.1, 0},
		{"albedo", s.Albedo, 0, 1},
		{"reference meridian", s.ReferenceMeridian, -180, 180},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < c.lo || c.v > c.hi {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidInput, c.name, c.v, c.lo, c.hi)
		}
	}

	if s.PanelAzimuth == 360 {
		return fmt.Errorf("%w: panel azimuth must be below 360", ErrInvalidInput)
	}

	if math.IsNaN(s.RatedPower) || math.IsInf(s.RatedPower, 0) || s.RatedPower <= 0 {
		return fmt.Errorf("%w: rated power %v must be positive", ErrInvalidInput, s.RatedPower)
	}

	if s.InverterEfficiency != nil {
		eff := *s.InverterEfficiency
		if math.IsNaN(eff) || eff <= 0 || eff > 1 {
			return fmt.Errorf("%w: inverter efficiency %v outside (0, 1]", ErrInvalidInput, eff)
		}
	}

	return nil
}
