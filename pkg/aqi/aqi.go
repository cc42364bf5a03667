// Package aqi converts particulate matter concentrations into US EPA Air
// Quality Index values. PM2.5 uses the breakpoints revised in 2024.
package aqi

import "math"

type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

var pm25Breakpoints = []breakpoint{
	{0.0, 9.0, 0, 50},
	{9.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 125.4, 151, 200},
	{125.5, 225.4, 201, 300},
	{225.5, 325.4, 301, 500},
}

var pm10Breakpoints = []breakpoint{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 604, 301, 500},
}

// interpolate applies I = (Ih-Il)/(Ch-Cl)*(C-Cl)+Il against a breakpoint
// table. Concentrations are truncated to the table's precision first so
// values that fall between two rows land in the lower one.
func interpolate(c float64, table []breakpoint, precision float64) int32 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	c = math.Floor(c*precision) / precision

	for _, bp := range table {
		if c <= bp.cHigh {
			if c < bp.cLow {
				c = bp.cLow
			}
			aqi := (bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + bp.iLow
			return int32(math.Round(aqi))
		}
	}
	return 500
}

// CalculatePM25 returns the AQI for a PM2.5 concentration in µg/m³
func CalculatePM25(pm25 float64) int32 {
	return interpolate(pm25, pm25Breakpoints, 10)
}

// CalculatePM10 returns the AQI for a PM10 concentration in µg/m³
func CalculatePM10(pm10 float64) int32 {
	return interpolate(pm10, pm10Breakpoints, 1)
}

// Categories lists every category name in ascending severity
var Categories = []string{
	"Good",
	"Moderate",
	"Unhealthy for Sensitive Groups",
	"Unhealthy",
	"Very Unhealthy",
	"Hazardous",
}

// GetCategory returns the AQI category name for a given AQI value
func GetCategory(aqi int32) string {
	switch {
	case aqi <= 50:
		return Categories[0]
	case aqi <= 100:
		return Categories[1]
	case aqi <= 150:
		return Categories[2]
	case aqi <= 200:
		return Categories[3]
	case aqi <= 300:
		return Categories[4]
	default:
		return Categories[5]
	}
}

// GetCategoryColor returns the standard color code for an AQI value
func GetCategoryColor(aqi int32) string {
	switch {
	case aqi <= 50:
		return "#00e400"
	case aqi <= 100:
		return "#ffff00"
	case aqi <= 150:
		return "#ff7e00"
	case aqi <= 200:
		return "#ff0000"
	case aqi <= 300:
		return "#8f3f97"
	default:
		return "#7e0023"
	}
}
