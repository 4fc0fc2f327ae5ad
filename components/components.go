// Package components defines the ECS components of a sward: one entity per
// sown species.
package components

import (
	"time"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/pasture"
)

// Plant links an entity to its growth engine.
type Plant struct {
	Species *pasture.Species
	Order   int // sowing order; results are applied to the soil in this order
}

// Microclimate holds the energy and water demand handed to a plant today.
type Microclimate struct {
	InterceptedRadn float64 // MJ/m2
	PotentialEP     float64 // mm
	LightShare      float64 // share of the radiation intercepted by the sward
}

// Uptake holds the soil resources the arbitrator granted a plant today.
type Uptake struct {
	Water         []float64 // mm per layer
	NH4           []float64 // kg/ha per layer
	NO3           []float64 // kg/ha per layer
	WaterResolved bool
	NResolved     bool
}

// Clear marks the uptake unresolved for a new day. The slices are kept.
func (u *Uptake) Clear() {
	u.WaterResolved = false
	u.NResolved = false
}

// Report is the end-of-day state of one plant, written to the daily report.
type Report struct {
	Date    string `csv:"date"`
	Species string `csv:"species"`
	Stage   int    `csv:"stage"`
	Alive   bool   `csv:"alive"`

	// DM (kg/ha)
	ShootDM  float64 `csv:"shoot_dm"`
	RootDM   float64 `csv:"root_dm"`
	LeafDM   float64 `csv:"leaf_dm"`
	StemDM   float64 `csv:"stem_dm"`
	StolonDM float64 `csv:"stolon_dm"`
	GreenDM  float64 `csv:"green_dm"`
	DeadDM   float64 `csv:"dead_dm"`

	// N (kg/ha)
	ShootN      float64 `csv:"shoot_n"`
	RootN       float64 `csv:"root_n"`
	LeafNConc   float64 `csv:"leaf_n_conc"`
	NUptake     float64 `csv:"n_uptake"`
	NFixed      float64 `csv:"n_fixed"`
	NDefoliated float64 `csv:"n_defoliated"`

	// Fluxes (kg/ha/day)
	GrowthPotential float64 `csv:"growth_potential"`
	GrowthWstress   float64 `csv:"growth_wstress"`
	GrowthActual    float64 `csv:"growth_actual"`
	GrowthEffective float64 `csv:"growth_effective"`
	Litter          float64 `csv:"litter"`
	RootSenesced    float64 `csv:"root_senesced"`
	Defoliated      float64 `csv:"defoliated"`

	// Water (mm)
	WaterDemand float64 `csv:"water_demand"`
	WaterUptake float64 `csv:"water_uptake"`

	// Limiting factors
	GLFTemp    float64 `csv:"glf_temp"`
	GLFWater   float64 `csv:"glf_water"`
	GLFN       float64 `csv:"glf_n"`
	HeatEffect float64 `csv:"heat_effect"`
	ColdEffect float64 `csv:"cold_effect"`

	// Canopy and roots
	InterceptedRadn float64 `csv:"intercepted_radn"`
	LAIGreen        float64 `csv:"lai_green"`
	CoverGreen      float64 `csv:"cover_green"`
	Height          float64 `csv:"height"`
	RootDepth       float64 `csv:"root_depth"`
	Digestibility   float64 `csv:"digestibility"`
}

// Fill refreshes the report from the plant's state on the given date.
func (r *Report) Fill(date time.Time, sp *pasture.Species) {
	st := sp.State()
	d := sp.Today()
	c := sp.Canopy()
	*r = Report{
		Date:    date.Format(config.DateLayout),
		Species: sp.Name,
		Stage:   sp.Stage(),
		Alive:   sp.IsAlive(),

		ShootDM:  st.ShootDM(),
		RootDM:   st.DMRoot,
		LeafDM:   st.LeafDM(),
		StemDM:   st.StemDM(),
		StolonDM: st.StolonDM(),
		GreenDM:  st.GreenDM(),
		DeadDM:   st.DeadDM(),

		ShootN:      st.ShootN(),
		RootN:       st.NRoot,
		LeafNConc:   st.NconcGreenLeaf(),
		NUptake:     d.NUptake,
		NFixed:      d.NFixed,
		NDefoliated: d.NDefoliated,

		GrowthPotential: d.GrowthPotential,
		GrowthWstress:   d.GrowthWstress,
		GrowthActual:    d.GrowthActual,
		GrowthEffective: d.GrowthEffective,
		Litter:          d.Litter,
		RootSenesced:    d.RootSenesced,
		Defoliated:      d.Defoliated,

		WaterDemand: d.WaterDemand,
		WaterUptake: d.WaterUptake,

		GLFTemp:    d.GLFTemp,
		GLFWater:   d.GLFWater,
		GLFN:       d.GLFN,
		HeatEffect: d.HeatEffect,
		ColdEffect: d.ColdEffect,

		InterceptedRadn: d.InterceptedRadn,
		LAIGreen:        c.LAIGreen,
		CoverGreen:      c.CoverGreen,
		Height:          c.Height,
		RootDepth:       sp.Roots().Depth,
		Digestibility:   sp.Digestibility(),
	}
}
