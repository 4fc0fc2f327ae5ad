package pasture

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sward/traits"
)

// CanopyDescriptor describes the canopy to a microclimate.
type CanopyDescriptor struct {
	LAIGreen   float64
	LAITotal   float64
	CoverGreen float64
	CoverTotal float64
	Height     float64 // mm
	Albedo     float64
	Gsmax      float64 // m/s
	R50        float64 // W/m2
	FRGR       float64
	K          float64 // light extinction coefficient
	FVPD       float64 // growth factor for vapour pressure deficit
	GsCO2      float64 // stomatal conductance factor for CO2
}

// Canopy returns the current canopy descriptor.
func (s *Species) Canopy() CanopyDescriptor {
	p := &s.p
	k := p.LightExtinctionCoefficient
	co2 := s.met.CO2()
	return CanopyDescriptor{
		LAIGreen:   s.greenLAI,
		LAITotal:   s.greenLAI + s.deadLAI,
		CoverGreen: PlantCover(s.greenLAI, k),
		CoverTotal: PlantCover(s.greenLAI+s.deadLAI, k),
		Height:     s.Height(),
		Albedo:     p.Albedo,
		Gsmax:      p.MaxStomatalConductance,
		R50:        p.HalfSatStomatalRadn,
		FRGR:       1,
		K:          k,
		FVPD:       s.fvpd.Value(VPD(s.met.MaxT(), s.met.MinT(), s.met.VP())),
		GsCO2:      ConductanceCO2Effects(co2, p.ReferenceCO2),
	}
}

// Height is the canopy height (mm) for the standing mass.
func (s *Species) Height() float64 {
	return math.Max(s.p.MinimumHeight, s.height.Value(s.cur.StandingDM()))
}

// SetLightProfile receives the radiation intercepted by this canopy in each
// canopy layer (MJ/m2).
func (s *Species) SetLightProfile(layers []float64) {
	s.interceptedRadn = floats.Sum(layers)
}

// SetPotentialEP receives the potential plant evaporation (mm), which is the
// day's water demand.
func (s *Species) SetPotentialEP(mm float64) {
	s.waterDemand = math.Max(0, mm)
}

// WaterDemand returns the water demand set by the microclimate (mm).
func (s *Species) WaterDemand() float64 { return s.waterDemand }

// evaluateLAI derives green and dead LAI from the leaf pools. Stolons count
// at 30% of their mass. Stems of a sparse non-legume sward add leaf area.
func (s *Species) evaluateLAI() {
	sla := s.p.SpecificLeafArea
	c := &s.cur
	green := c.DMLeaf[0] + c.DMLeaf[1] + c.DMLeaf[2] + 0.3*c.StolonDM()
	s.greenLAI = green / 10000 * sla

	if !s.Traits.Has(traits.Legume) {
		if gw := c.GreenDM(); gw < 1000 {
			stems := c.DMStem[0] + c.DMStem[1] + c.DMStem[2]
			s.greenLAI += stems / 10000 * sla * math.Sqrt((1000-gw)/10000)
		}
	}
	s.deadLAI = c.DMLeaf[3] / 10000 * sla
}

// LAI returns the green and dead leaf area index.
func (s *Species) LAI() (green, dead float64) { return s.greenLAI, s.deadLAI }

// Digestibility returns the digestibility of the standing herbage.
func (s *Species) Digestibility() float64 { return s.digestHerbage }

// evaluateDigestibility estimates herbage digestibility from the sugar,
// protein and cell wall content of live and dead tissue.
func (s *Species) evaluateDigestibility() {
	p := &s.p
	c := &s.cur
	standing := c.StandingDM()
	if standing <= 0 {
		s.digestHerbage = 0
		return
	}

	green := c.GreenDM()
	fSugar := 0.5 * divide(s.day.GrowthActual, green, 0)

	digestLive := 0.0
	if green > 0 && c.GreenN() > 0 {
		cnLive := green * CarbonFractionInDM / c.GreenN()
		fProt := (cnRatioCellWall/cnLive - (1 - fSugar)) / (cnRatioCellWall/cnRatioProtein - 1)
		fWall := 1 - fSugar - fProt
		digestLive = clamp01(fSugar + fProt + p.DigestibilityLive*fWall)
	}

	dead := c.DeadDM()
	digestDead := 0.0
	if dead > 0 && c.DeadN() > 0 {
		cnDead := dead * CarbonFractionInDM / c.DeadN()
		fProt := (cnRatioCellWall/cnDead - 1) / (cnRatioCellWall/cnRatioProtein - 1)
		digestDead = clamp01(fProt + p.DigestibilityDead*(1-fProt))
	}

	deadFrac := divide(dead, standing, 1)
	s.digestHerbage = (1-deadFrac)*digestLive + deadFrac*digestDead
}
