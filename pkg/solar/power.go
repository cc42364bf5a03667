package solar

import "math"

const (
	// noctOffset is NOCT (45 °C) minus the 20 °C NOCT ambient
	noctOffset = 45.0 - 20.0

	// noctIrradiance is the irradiance at which the NOCT rise is defined, W/m²
	noctIrradiance = 800.0

	// stcIrradiance and stcCellTemp are standard test conditions
	stcIrradiance = 1000.0
	stcCellTemp   = 25.0
)

// CellTemperature estimates the cell temperature in °C from ambient air
// temperature and plane-of-array irradiance using the NOCT model.
func CellTemperature(poa, ambientC float64) float64 {
	return ambientC + noctOffset/noctIrradiance*poa
}

// TemperatureCorrection is the multiplicative derate relative to 25 °C cells
func TemperatureCorrection(cellC, tempCoefficient float64) float64 {
	return 1 + tempCoefficient*(cellC-stcCellTemp)
}

// DCPower returns the panel's DC output in watts. The result is clamped at
// zero because at extreme cell temperatures the correction factor itself can
// go negative.
func DCPower(poa, ambientC float64, site Site) float64 {
	poa = finiteOrZero(poa)
	if poa <= 0 {
		return 0
	}
	corr := TemperatureCorrection(CellTemperature(poa, finiteOrZero(ambientC)), site.TempCoefficient)
	return math.Max(0, site.RatedPower*(poa/stcIrradiance)*corr)
}

// Power returns the simulated output in watts: DC power, scaled by the
// inverter efficiency when the site defines one.
func Power(poa, ambientC float64, site Site) float64 {
	dc := DCPower(poa, ambientC, site)
	if site.InverterEfficiency == nil {
		return dc
	}
	return math.Max(0, dc*(*site.InverterEfficiency))
}
