package pasture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sward/traits"
)

// soilAvailableN fills the NH4 and NO3 (kg/ha) in the root zone available to
// this plant. With the alternative scheme N follows the fraction of available
// water taken up, scaled by an availability coefficient for each form.
func (s *Species) soilAvailableN() {
	w := &s.layer
	nh4, no3 := s.soil.NH4(), s.soil.NO3()
	var ll15 []float64
	if s.p.AltNUptake {
		ll15 = s.soil.LL15()
	}
	for l := range w.nh4Avail {
		w.nh4Avail[l], w.no3Avail[l] = 0, 0
		if l > s.roots.frontier {
			continue
		}
		f := s.fractionLayerWithRoots(l)
		if !s.p.AltNUptake {
			w.nh4Avail[l] = nh4[l] * f
			w.no3Avail[l] = no3[l] * f
			continue
		}
		facW := divide(w.waterTaken[l], math.Max(0, w.water[l]-ll15[l]), 0)
		w.nh4Avail[l] = nh4[l] * s.p.KuNH4 * f * facW
		w.no3Avail[l] = no3[l] * s.p.KuNO3 * f * facW
	}
}

// nDemand sets the N needed by today's water-limited growth at the optimum
// and at the maximum concentrations. Elevated CO2 lowers the optimum.
func (s *Species) nDemand() {
	d := &s.day
	g := d.GrowthWstress
	toRoot := g * (1 - d.FracShoot)
	toStolon := g * d.FracShoot * s.p.FracToStolon
	toLeaf := g * d.FracShoot * d.FracLeaf
	toStem := g * d.FracShoot * (1 - s.p.FracToStolon - d.FracLeaf)

	d.NDemandOpt = (toRoot*s.rootN.Opt + toStolon*s.stolonN.Opt + toLeaf*s.leafN.Opt + toStem*s.stemN.Opt) * d.NCO2
	d.NDemandLux = toRoot*s.rootN.Max + toStolon*s.stolonN.Max + toLeaf*s.leafN.Max + toStem*s.stemN.Max
}

// nFixation is the N fixed by a legume: a minimum fraction of the luxury
// demand, rising towards the maximum fraction as soil N runs short.
func (s *Species) nFixation(soilN float64) float64 {
	if !s.Traits.Has(traits.Legume) {
		return 0
	}
	p := &s.p
	lux := s.day.NDemandLux
	iniFix := p.MinimumNFixation * lux

	stress := 1.0
	if lux > 0 && lux > soilN+iniFix {
		stress = divide(soilN, lux-iniFix, 1)
	}
	frac := p.MinimumNFixation
	if stress < 0.99 {
		frac = p.MaximumNFixation - (p.MaximumNFixation-p.MinimumNFixation)*stress
	}
	return math.Max(0, frac) * lux
}

// nBudget works out how the luxury demand is met: by fixation, then by N
// remobilised from senescing tissue, then from the soil. It starts afresh
// from the day's remobilisable N, so it may be evaluated more than once.
func (s *Species) nBudget() {
	d := &s.day
	s.soilAvailableN()
	w := &s.layer
	soilN := floats.Sum(w.nh4Avail) + floats.Sum(w.no3Avail)
	d.SoilNAvailable = soilN

	s.nDemand()
	d.NRemobilising = d.NRemobilisable
	d.NFixed = s.nFixation(soilN)

	switch {
	case d.NFixed-d.NDemandLux > -1e-4:
		d.NFixed = d.NDemandLux
		d.NRemobToGrowth = 0
		d.SoilNDemand = 0
	case d.NFixed+d.NRemobilising-d.NDemandLux > -1e-4:
		d.NRemobToGrowth = math.Max(0, d.NDemandLux-d.NFixed)
		d.NRemobilising -= d.NRemobToGrowth
		d.SoilNDemand = 0
	default:
		d.NRemobToGrowth = d.NRemobilising
		d.NRemobilising = 0
		d.SoilNDemand = d.NDemandLux - d.NFixed - d.NRemobToGrowth
	}
}

// PotentialNUptake returns the NH4 and NO3 this plant would take from each
// layer to meet its soil N demand if it had the soil to itself.
func (s *Species) PotentialNUptake() (nh4, no3 []float64) {
	s.nBudget()
	w := &s.layer
	d := &s.day
	frac := 0.0
	if d.SoilNDemand > 0 {
		frac = math.Min(1, divide(d.SoilNDemand, d.SoilNAvailable, 0))
	}
	nh4 = make([]float64, len(w.nh4Avail))
	no3 = make([]float64, len(w.no3Avail))
	floats.ScaleTo(nh4, frac, w.nh4Avail)
	floats.ScaleTo(no3, frac, w.no3Avail)
	return nh4, no3
}

// SoilNDemand returns the N the plant needs from the soil today.
func (s *Species) SoilNDemand() float64 { return s.day.SoilNDemand }

// luxuryRemobilisation takes luxury N from stages 3 then 2 when the N for
// new growth falls short of the optimum.
func (s *Species) luxuryRemobilisation() {
	d := &s.day
	d.NFastRemob2, d.NFastRemob3 = 0, 0
	missing := d.NDemandOpt - d.NewGrowthN
	if missing < 1e-4 {
		return
	}
	switch {
	case missing > s.nLuxury2+s.nLuxury3:
		d.NFastRemob2 = s.nLuxury2
		d.NFastRemob3 = s.nLuxury3
	case missing <= s.nLuxury3:
		d.NFastRemob3 = missing
	default:
		d.NFastRemob3 = s.nLuxury3
		d.NFastRemob2 = missing - s.nLuxury3
	}
	d.NewGrowthN += d.NFastRemob2 + d.NFastRemob3
}

// nitrogenCalculations resolves today's N budget and soil uptake, reports
// the uptake to the soil and sets glfN.
func (s *Species) nitrogenCalculations() error {
	d := &s.day
	w := &s.layer
	s.nBudget()
	for l := range w.nh4Taken {
		w.nh4Taken[l], w.no3Taken[l] = 0, 0
	}

	switch s.uptake {
	case UptakeSelf:
		uptake := 0.0
		if d.SoilNDemand > 0 {
			uptake = math.Min(d.SoilNDemand, d.SoilNAvailable)
		}
		if uptake > 0 {
			frac := math.Min(1, divide(uptake, d.SoilNAvailable, 0))
			floats.ScaleTo(w.nh4Taken, frac, w.nh4Avail)
			floats.ScaleTo(w.no3Taken, frac, w.no3Avail)
		}
		taken := floats.Sum(w.nh4Taken) + floats.Sum(w.no3Taken)
		if math.Abs(uptake-taken) > 1e-4 {
			return s.massBalance("N uptake", taken, uptake)
		}
		d.NUptake = uptake
	case UptakeArbitrated:
		nh4, no3, ok := s.arb.NUptake(s.Name)
		if !ok {
			return fmt.Errorf("species %q: nitrogen: %w", s.Name, ErrUptakeNotResolved)
		}
		for l := 0; l <= s.roots.frontier && l < len(w.nh4Taken); l++ {
			if l < len(nh4) {
				w.nh4Taken[l] = nh4[l]
			}
			if l < len(no3) {
				w.no3Taken[l] = no3[l]
			}
		}
		d.NUptake = floats.Sum(w.nh4Taken) + floats.Sum(w.no3Taken)
		if d.NUptake > d.SoilNDemand+1e-4 {
			return s.massBalance("N uptake (more than soil demand)", d.NUptake, d.SoilNDemand)
		}
	}

	d.NewGrowthN = d.NFixed + d.NRemobToGrowth + d.NUptake
	s.luxuryRemobilisation()

	if d.NUptake > 0 {
		dNH4 := make([]float64, len(w.nh4Taken))
		dNO3 := make([]float64, len(w.no3Taken))
		floats.ScaleTo(dNH4, -1, w.nh4Taken)
		floats.ScaleTo(dNO3, -1, w.no3Taken)
		s.soil.ApplyNDelta(dNH4, dNO3)
	}

	d.GLFN = 1
	if d.NewGrowthN > 0 {
		d.GLFN = clamp01(divide(d.NewGrowthN, d.NDemandOpt, 1))
	}
	s.glfN = d.GLFN
	return nil
}
