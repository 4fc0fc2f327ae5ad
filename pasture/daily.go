package pasture

import (
	"math"

	"github.com/pthm-cable/sward/traits"
)

// Daily holds the rates, growth limiting factors and fluxes of one day. It
// is rebuilt by DailyInit and never carried into the next day.
type Daily struct {
	Tmean  float64
	TmeanW float64 // daytime weighted mean temperature

	InterceptedRadn float64
	WaterDemand     float64

	// Growth limiting factors
	GLFTemp         float64
	GLFRadn         float64
	GLFCO2          float64
	GLFNConc        float64 // leaf N effect on photosynthesis
	NCO2            float64 // CO2 dilution of the optimum N concentration
	HeatEffect      float64
	ColdEffect      float64
	GLFWater        float64
	GLFWaterDeficit float64
	GLFWaterLogging float64
	GLFN            float64

	// C and DM (kg/ha)
	Pgross          float64 // kg C
	RespMaint       float64 // kg C
	RespGrowth      float64 // kg C
	CRemobilisable  float64 // kg C
	GrowthPotential float64
	GrowthWstress   float64
	GrowthActual    float64
	GrowthShoot     float64 // net of litter
	GrowthRoot      float64 // net of senescence
	GrowthEffective float64

	FracShoot   float64
	FracLeaf    float64
	PartitionDM Partition
	PartitionN  Partition

	// Water (mm)
	WaterUptake float64

	// N (kg/ha)
	NDemandOpt     float64
	NDemandLux     float64
	NFixed         float64
	NRemobilisable float64 // from yesterday's senescence
	NRemobilising  float64 // still unused today
	NRemobToGrowth float64
	NRemobilised   float64 // for tomorrow
	NFastRemob2    float64
	NFastRemob3    float64
	SoilNDemand    float64
	SoilNAvailable float64
	NUptake        float64
	NewGrowthN     float64

	// Turnover
	Turnover      TurnoverRates
	Litter        float64
	NLitter       float64
	RootSenesced  float64
	NRootSenesced float64

	// Removal
	Defoliated        float64
	NDefoliated       float64
	DigestDefoliated  float64
	FractionHarvested float64
}

// DailyInit starts a new day: it clears yesterday's rates and carries over
// the C and N freed by yesterday's senescence.
func (s *Species) DailyInit() {
	p := &s.p
	maxT, minT := s.met.MaxT(), s.met.MinT()
	s.day = Daily{
		Tmean:          0.5 * (maxT + minT),
		TmeanW:         0.75*maxT + 0.25*minT,
		NRemobilisable: s.nRemobilised,
		CRemobilisable: s.cRemobilisable,
		NCO2: NCO2Effects(s.met.CO2(), p.ReferenceCO2,
			p.CO2NUptakeOffset, p.CO2NUptakeMinimum, p.CO2NUptakeExponent),
		GLFWater:        1,
		GLFWaterDeficit: 1,
		GLFWaterLogging: 1,
		GLFN:            s.glfN,
		HeatEffect:      s.heat.effect,
		ColdEffect:      s.cold.effect,
	}
}

// PotentialGrowth snapshots the state and computes today's potential
// growth from light, temperature and CO2. Annuals do not grow before
// emergence.
func (s *Species) PotentialGrowth() error {
	if !s.alive {
		return nil
	}
	d := &s.day
	d.InterceptedRadn = s.interceptedRadn
	d.WaterDemand = s.waterDemand

	s.saveState()
	s.advancePhenology()
	if err := s.updateRootDepth(); err != nil {
		return err
	}

	if s.Traits.Has(traits.Annual) && s.phen.stage == stageDormant {
		d.Pgross, d.RespMaint, d.RespGrowth = 0, 0, 0
		d.CRemobilisable = 0
		d.GrowthPotential = 0
		return nil
	}
	d.Pgross = s.dailyGrossPotentialGrowth()
	d.RespMaint = s.dailyMaintenanceRespiration()
	d.RespGrowth = s.dailyGrowthRespiration()
	d.GrowthPotential = s.dailyNetPotentialGrowth()
	return nil
}

// WaterLimitedGrowth takes up water and limits potential growth by water
// stress, then works out how that growth is split between shoot and root.
func (s *Species) WaterLimitedGrowth() error {
	if !s.alive {
		return nil
	}
	if err := s.waterCalculations(); err != nil {
		return err
	}
	d := &s.day
	d.GrowthWstress = d.GrowthPotential * math.Pow(d.GLFWater, s.p.WaterStressExponent)
	d.FracShoot = s.toShootFraction()
	d.FracLeaf = s.leafFraction()
	return nil
}

// ActualGrowth takes up N, limits growth by N, partitions the new tissue,
// runs tissue turnover and returns litter and senesced roots to the soil.
// Any mass balance failure is returned as a *MassBalanceError.
func (s *Species) ActualGrowth() error {
	if !s.alive {
		return nil
	}
	if err := s.nitrogenCalculations(); err != nil {
		return err
	}
	d := &s.day
	glfN := math.Pow(d.GLFN, s.p.DilutionCoefN)
	d.GrowthActual = d.GrowthWstress * math.Min(glfN, s.p.SoilFertilityGLF)

	if err := s.partitionNewGrowth(); err != nil {
		return err
	}
	if err := s.tissueTurnover(); err != nil {
		return err
	}
	d.GrowthEffective = d.GrowthShoot + d.GrowthRoot

	if err := s.updateAggregated(); err != nil {
		return err
	}
	s.evaluateLAI()
	s.evaluateDigestibility()

	s.returnSurfaceOM(d.Litter, d.NLitter)
	s.returnRootsOM(d.RootSenesced, d.NRootSenesced)
	return nil
}

// Grow runs the whole daily growth cycle for a species growing on its own.
// DailyInit and the microclimate inputs must already be set.
func (s *Species) Grow() error {
	if err := s.PotentialGrowth(); err != nil {
		return err
	}
	if err := s.WaterLimitedGrowth(); err != nil {
		return err
	}
	return s.ActualGrowth()
}
