package pasture

import (
	"math"

	"github.com/pthm-cable/sward/traits"
)

// dailyMaintenanceRespiration is the C lost to maintain live tissue (kg C/ha).
// Above the optimum temperature respiration keeps rising, up to 1.25 times
// its rate at the optimum.
func (s *Species) dailyMaintenanceRespiration() float64 {
	p := &s.p
	t := s.day.Tmean
	effect := 0.0
	if t > p.GrowthTmin {
		if t < p.GrowthTopt {
			effect = TemperatureLimitingFactor(t, s.temp)
		} else {
			effect = math.Min(1.25, t/p.GrowthTopt) * TemperatureLimitingFactor(p.GrowthTopt, s.temp)
		}
	}
	live := (s.cur.GreenDM() + s.cur.DMRoot) * CarbonFractionInDM
	return math.Max(0, live*p.MaintenanceRespirationCoef*effect*s.day.GLFNConc)
}

// dailyGrowthRespiration is the C lost building new tissue (kg C/ha).
func (s *Species) dailyGrowthRespiration() float64 {
	return s.day.Pgross * s.p.GrowthRespirationCoef
}

// dailyNetPotentialGrowth converts the day's C balance into potential DM
// growth (kg DM/ha).
func (s *Species) dailyNetPotentialGrowth() float64 {
	d := &s.day
	net := (1 - s.p.GrowthRespirationCoef) * (d.Pgross + d.CRemobilisable - d.RespMaint)
	net = math.Max(0, net) / CarbonFractionInDM
	if s.Traits.Has(traits.Annual) {
		net *= s.annualGrowthReduction()
	}
	return net
}
