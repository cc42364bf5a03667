// Package types holds the row types passed between the ingestion, simulation,
// and storage layers.
//
// All timestamps are civil times: a time.Time in time.UTC whose wall clock is
// the local reading of the site's clock. No offset is carried; the simulation
// reinterprets the wall clock against the site's reference meridian.
package types

import "time"

// WeatherSample is one hourly weather/irradiance observation. Nil fields were
// absent in the source.
type WeatherSample struct {
	Timestamp        time.Time
	Temperature      *float64 // temperature_2m, °C
	CloudCover       *float64 // cloud_cover, %
	RelativeHumidity *float64 // relative_humidity_2m, %
	Precipitation    *float64 // precipitation, mm
	GHI              *float64 // shortwave_radiation, W/m²
	DNI              *float64 // direct_normal_irradiance, W/m²
	DHI              *float64 // diffuse_radiation, W/m²
}

// PollutionSample is one hour of pivoted air quality sensor readings
type PollutionSample struct {
	Timestamp        time.Time
	PM1              *float64 // µg/m³
	PM25             *float64 // µg/m³
	PM10             *float64 // µg/m³
	Temperature      *float64 // sensor temperature, °C
	RelativeHumidity *float64 // sensor humidity, %
	UM003            *float64 // particle count, #/cm³
}

// Observation is a weather sample and a pollution sample that share a timestamp
type Observation struct {
	Timestamp time.Time
	Weather   WeatherSample
	Pollution PollutionSample
}

// Float returns a pointer to v, for building optional fields
func Float(v float64) *float64 {
	return &v
}

// Value dereferences an optional field, mapping absent to zero
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Civil strips location information from t, keeping its wall clock
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Measurement is a single long-format air quality reading, one parameter per
// row, as published by OpenAQ.
type Measurement struct {
	Timestamp time.Time
	Parameter string
	Value     *float64
}
