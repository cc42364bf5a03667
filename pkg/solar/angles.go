package solar

import "math"

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// fixAngle normalizes an angle to the range [0, 360) degrees
func fixAngle(a float64) float64 {
	a = a - 360.0*math.Floor(a/360.0)
	if a >= 360.0 {
		return 0
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finiteOrZero maps NaN and ±Inf to zero so missing readings never poison a sum
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
