package solar

import "math"

// HorizonZenith is the zenith at and beyond which the beam and sky terms are
// no longer trusted and plane-of-array irradiance is reported as zero.
const HorizonZenith = 89.9

// Irradiance holds the three measured irradiance components, W/m²
type Irradiance struct {
	GHI float64 // global horizontal
	DNI float64 // direct normal
	DHI float64 // diffuse horizontal
}

// POAComponents is plane-of-array irradiance split by origin, W/m²
type POAComponents struct {
	Beam    float64
	Diffuse float64
	Ground  float64
}

// Total is the irradiance incident on the panel
func (c POAComponents) Total() float64 {
	return c.Beam + c.Diffuse + c.Ground
}

// CosAOI returns the cosine of the angle of incidence between the beam and
// the panel normal. With includeAzimuth false the relative azimuth term is
// dropped, which matches the reduced form cos(zenith)·cos(tilt).
func CosAOI(g Geometry, site Site) float64 {
	zen := degToRad(g.Zenith)
	tilt := degToRad(site.Tilt)

	cosAOI := math.Cos(zen) * math.Cos(tilt)
	if site.IncludeAzimuthTerm {
		cosAOI += math.Sin(zen) * math.Sin(tilt) * math.Cos(degToRad(g.Azimuth-site.PanelAzimuth))
	}
	return cosAOI
}

// PlaneOfArrayComponents decomposes the measured irradiance onto the tilted
// panel using an isotropic sky and a uniformly reflecting ground. Missing or
// negative readings contribute nothing.
func PlaneOfArrayComponents(g Geometry, site Site, irr Irradiance) POAComponents {
	if g.Zenith >= HorizonZenith {
		return POAComponents{}
	}

	dni := math.Max(0, finiteOrZero(irr.DNI))
	dhi := math.Max(0, finiteOrZero(irr.DHI))
	ghi := math.Max(0, finiteOrZero(irr.GHI))
	albedo := math.Max(0, finiteOrZero(site.Albedo))

	cosTilt := math.Cos(degToRad(site.Tilt))

	return POAComponents{
		Beam:    dni * math.Max(0, CosAOI(g, site)),
		Diffuse: dhi * (1 + cosTilt) / 2,
		Ground:  ghi * albedo * (1 - cosTilt) / 2,
	}
}

// PlaneOfArray returns total plane-of-array irradiance, W/m², never negative
func PlaneOfArray(g Geometry, site Site, irr Irradiance) float64 {
	return PlaneOfArrayComponents(g, site, irr).Total()
}
