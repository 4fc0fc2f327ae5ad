package pasture

import "math"

// leafPhotosynthesis is the non-rectangular hyperbola response of leaf
// photosynthesis (mg CO2/m2 leaf/s) to irradiance (J/m2 leaf/s).
func leafPhotosynthesis(irradiance, pmax, efficiency, curvature float64) float64 {
	a := efficiency*irradiance + pmax
	b := 4 * curvature * efficiency * irradiance * pmax
	return (0.5 / curvature) * (a - math.Sqrt(math.Max(0, a*a-b)))
}

// PmxNeffect is the effect of leaf N concentration on photosynthesis: 0 at
// or below the minimum concentration, 1 at or above the optimum.
func (s *Species) PmxNeffect() float64 {
	nc := s.cur.NconcGreenLeaf()
	opt := s.leafN.Opt * s.day.NCO2
	switch {
	case nc >= opt:
		return 1
	case nc <= s.leafN.Min:
		return 0
	}
	return clamp01(divide(nc-s.leafN.Min, opt-s.leafN.Min, 1))
}

// dailyGrossPotentialGrowth computes gross photosynthesis (kg C/ha/day) for
// the intercepted radiation. It also advances the heat and cold damage
// states, so it must run once per day.
func (s *Species) dailyGrossPotentialGrowth() float64 {
	p := &s.p
	d := &s.day

	d.GLFCO2 = PCO2Effects(s.met.CO2(), p.ReferenceCO2, p.CO2PhotosynthesisCoef)
	d.GLFNConc = s.PmxNeffect()

	t1 := TemperatureLimitingFactor(d.Tmean, s.temp)
	t2 := TemperatureLimitingFactor(d.TmeanW, s.temp)
	d.GLFTemp = 0.25*t1 + 0.75*t2

	// mg CO2/m2 leaf/s
	pmax1 := p.ReferencePhotosynthesisRate * t1 * d.GLFCO2 * d.GLFNConc
	pmax2 := p.ReferencePhotosynthesisRate * t2 * d.GLFCO2 * d.GLFNConc

	dayLength := 3600 * s.met.DayLength(-6)
	k := p.LightExtinctionCoefficient

	// MJ/m2/day to J/m2/s over the day
	par := p.FractionPAR * s.interceptedRadn * 1e6
	iTop := divide(1.33333*par*k, dayLength, 0)
	iHalf := iTop / 2

	pl1 := leafPhotosynthesis(iTop, pmax2, p.PhotosyntheticEfficiency, p.PhotosynthesisCurveFactor)
	pl2 := leafPhotosynthesis(iHalf, pmax1, p.PhotosyntheticEfficiency, p.PhotosynthesisCurveFactor)
	plDaily := dayLength * (pl1 + pl2) * 0.5
	d.GLFRadn = divide(0.25*pl1+0.75*pl2, 0.25*pmax1+0.75*pmax2, 1)

	// canopy per ground area, mg CO2/m2/day
	pc := plDaily * PlantCover(s.greenLAI, k) / k
	// mg CO2/m2 -> g C/m2 -> kg C/ha
	base := pc * 0.001 * (12.0 / 44.0) * 10

	d.HeatEffect = s.HeatStress()
	d.ColdEffect = s.ColdStress()
	return base * math.Min(d.HeatEffect, d.ColdEffect) * p.GenericGLF
}
