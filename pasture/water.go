package pasture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// soilAvailableWater fills the available water (mm) in each layer of the
// root zone, as seen by this plant alone.
func (s *Species) soilAvailableWater(out []float64) {
	th := s.soil.Thickness()
	sw := s.soil.Water()
	for l := range out {
		out[l] = 0
	}

	var rld, ksat, ll15, dul []float64
	if s.p.AltWaterUptake {
		rld = s.RootLengthDensity()
		ksat = s.soil.KSat()
		ll15 = s.soil.LL15()
		dul = s.soil.DUL()
	}
	for l := 0; l <= s.roots.frontier && l < len(out); l++ {
		avail := math.Max(0, sw[l]-s.soilCrop.LL[l]*th[l]) * s.fractionLayerWithRoots(l)
		if !s.p.AltWaterUptake {
			out[l] = avail * s.soilCrop.KL[l]
			continue
		}
		// Each factor saturates exponentially, reaching 0.9 at its reference value
		facRLD := 1 - math.Pow(10, -rld[l]/s.p.ReferenceRLD)
		facCond := 1 - math.Pow(10, -ksat[l]/s.p.ReferenceKSat)
		facW := 1 - math.Pow(10, -divide(math.Max(0, sw[l]-ll15[l]), dul[l]-ll15[l], 0))
		out[l] = avail * facRLD * facCond * facW
	}
}

// PotentialWaterUptake returns the water (mm) this plant would take from
// each layer to meet its demand if it had the soil to itself.
func (s *Species) PotentialWaterUptake() []float64 {
	out := make([]float64, len(s.soil.Thickness()))
	s.soilAvailableWater(out)
	frac := math.Min(1, divide(s.waterDemand, floats.Sum(out), 0))
	floats.Scale(frac, out)
	return out
}

// doWaterUptake takes up today's water, either computing it from the soil
// or reading the amounts resolved by the arbitrator, and reports the delta
// to the soil.
func (s *Species) doWaterUptake() error {
	w := &s.layer
	copy(w.water, s.soil.Water())
	for l := range w.waterTaken {
		w.waterTaken[l] = 0
	}

	switch s.uptake {
	case UptakeSelf:
		s.soilAvailableWater(w.availWater)
		frac := math.Min(1, divide(s.waterDemand, floats.Sum(w.availWater), 0))
		for l := 0; l <= s.roots.frontier && l < len(w.waterTaken); l++ {
			w.waterTaken[l] = w.availWater[l] * frac
		}
	case UptakeArbitrated:
		supplied, ok := s.arb.WaterUptake(s.Name)
		if !ok {
			return fmt.Errorf("species %q: water: %w", s.Name, ErrUptakeNotResolved)
		}
		for l := 0; l <= s.roots.frontier && l < len(w.waterTaken) && l < len(supplied); l++ {
			w.waterTaken[l] = supplied[l]
		}
		if total := floats.Sum(w.waterTaken); total > s.waterDemand+1e-4 {
			return s.massBalance("water uptake", total, s.waterDemand)
		}
	}

	s.day.WaterUptake = floats.Sum(w.waterTaken)
	delta := make([]float64, len(w.waterTaken))
	floats.ScaleTo(delta, -1, w.waterTaken)
	s.soil.ApplyWaterDelta(delta)
	return nil
}

// WaterDeficitFactor is the growth limiting factor for soil water deficit:
// the fraction of today's demand met by uptake.
func (s *Species) WaterDeficitFactor() float64 {
	if s.waterDemand <= 1e-4 {
		return 1
	}
	return clamp01(s.day.WaterUptake / s.waterDemand)
}

// WaterLoggingFactor is the growth limiting factor for excess soil water,
// from 1 at field capacity down to 1 - WaterLoggingCoefficient at
// saturation, averaged over the root zone.
func (s *Species) WaterLoggingFactor() float64 {
	sw, sat, dul := s.layer.water, s.soil.SAT(), s.soil.DUL()
	var water, saturation, fieldCap float64
	for l := 0; l <= s.roots.frontier && l < len(sw); l++ {
		f := s.fractionLayerWithRoots(l)
		water += sw[l] * f
		saturation += sat[l] * f
		fieldCap += dul[l] * f
	}
	excess := clamp01(divide(math.Max(0, water-fieldCap), saturation-fieldCap, 0))
	return 1 - s.p.WaterLoggingCoefficient*excess
}

// waterCalculations takes up water and sets glfWater. Water logging is only
// considered when there is no drought.
func (s *Species) waterCalculations() error {
	if err := s.doWaterUptake(); err != nil {
		return err
	}
	d := &s.day
	d.GLFWaterDeficit = s.WaterDeficitFactor()
	d.GLFWaterLogging = 1
	d.GLFWater = d.GLFWaterDeficit
	if d.GLFWater > 0.999 {
		d.GLFWaterLogging = s.WaterLoggingFactor()
		d.GLFWater = d.GLFWaterLogging
	}
	return nil
}
