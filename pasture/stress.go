package pasture

// stressState tracks damage from extreme temperatures. effect is the growth
// multiplier still in force (1 when undamaged); accum sums the degree-days
// counted towards recovery since the last damage.
type stressState struct {
	effect float64
	accum  float64
}

func (s stressState) damaged() bool { return s.effect < 1 }

// step advances the state by one day. newFactor is today's fresh damage
// (1 for none), recovery the degree-days gained today and recoverySum the
// degree-days needed to recover fully. New damage compounds whatever damage
// is still unresolved.
func (s *stressState) step(newFactor, recovery, recoverySum float64) float64 {
	recovered := 1.0
	if s.effect < 1 {
		s.accum += recovery
		if s.accum < recoverySum {
			recovered = s.effect + (1-s.effect)*s.accum/recoverySum
		} else {
			s.effect = 1
			s.accum = 0
		}
	}
	if newFactor < 1 {
		s.effect = recovered * newFactor
		s.accum = 0
		return s.effect
	}
	if s.effect < 1 {
		return recovered
	}
	return 1
}

// heatFactor is the fresh heat damage for a day with the given maximum
// temperature: none below onset, complete above full.
func heatFactor(maxT, onset, full float64) float64 {
	switch {
	case maxT > full:
		return 0
	case maxT > onset:
		return (full - maxT) / (full - onset)
	}
	return 1
}

// coldFactor is the fresh cold damage for a day with the given minimum
// temperature: none above onset, complete below full.
func coldFactor(minT, onset, full float64) float64 {
	switch {
	case minT < full:
		return 0
	case minT < onset:
		return (minT - full) / (onset - full)
	}
	return 1
}

// HeatStress returns today's heat stress growth factor and advances the heat
// damage state.
func (s *Species) HeatStress() float64 {
	p := &s.p
	tmean := s.day.Tmean
	recovery := max(0, p.HeatRecoverT-tmean)
	return s.heat.step(heatFactor(s.met.MaxT(), p.HeatOnsetT, p.HeatFullT), recovery, p.HeatSumT)
}

// ColdStress returns today's cold stress growth factor and advances the cold
// damage state.
func (s *Species) ColdStress() float64 {
	p := &s.p
	tmean := s.day.Tmean
	recovery := max(0, tmean-p.ColdRecoverT)
	return s.cold.step(coldFactor(s.met.MinT(), p.ColdOnsetT, p.ColdFullT), recovery, p.ColdSumT)
}
