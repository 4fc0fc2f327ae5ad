package telemetry

import (
	"time"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Collector accumulates daily sward records within windows of days and
// produces WindowStats.
type Collector struct {
	windowDays int

	// Current window tracking
	windowStartDay int

	shootDM []float64 // daily sward shoot DM

	growth, litter, senesced, defoliated float64
	nUptake, nFixed, waterUptake         float64
	drainage, runoff, evaporation        float64
	mineralised                          float64

	glfWater, glfN, glfTemp float64
	plantDays               int
}

// SoilFluxes holds the soil water and N fluxes of one day.
type SoilFluxes struct {
	Drainage    float64 // mm
	Runoff      float64 // mm
	Evaporation float64 // mm
	Mineralised float64 // kg N/ha
}

// Pools holds sward and soil pool totals for mass balance tracking.
type Pools struct {
	PlantDM   float64
	PlantN    float64
	SoilWater float64
	MineralN  float64
	SurfaceDM float64
	SurfaceN  float64
	FOMDM     float64
	FOMN      float64
}

// NewCollector creates a new stats collector with the given window length.
func NewCollector(windowDays int) *Collector {
	if windowDays < 1 {
		windowDays = 1
	}
	return &Collector{windowDays: windowDays}
}

// RecordDay adds one day of plant reports and soil fluxes to the window.
func (c *Collector) RecordDay(reports []components.Report, soil SoilFluxes) {
	var shoot float64
	for i := range reports {
		r := &reports[i]
		shoot += r.ShootDM
		c.growth += r.GrowthEffective
		c.litter += r.Litter
		c.senesced += r.RootSenesced
		c.defoliated += r.Defoliated
		c.nUptake += r.NUptake
		c.nFixed += r.NFixed
		c.waterUptake += r.WaterUptake
		if r.Alive {
			c.glfWater += r.GLFWater
			c.glfN += r.GLFN
			c.glfTemp += r.GLFTemp
			c.plantDays++
		}
	}
	c.shootDM = append(c.shootDM, shoot)

	c.drainage += soil.Drainage
	c.runoff += soil.Runoff
	c.evaporation += soil.Evaporation
	c.mineralised += soil.Mineralised
}

// ShouldFlush returns true if the window is complete at the given day.
func (c *Collector) ShouldFlush(day int) bool {
	return day-c.windowStartDay >= c.windowDays
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the day number, its date, the end-of-day reports and
// the pool totals.
func (c *Collector) Flush(day int, date time.Time, reports []components.Report, pools Pools) WindowStats {
	mean, std, p10, p50, p90 := ComputeDistribution(c.shootDM)

	stats := WindowStats{
		WindowStartDay: c.windowStartDay,
		WindowEndDay:   day,
		Date:           date.Format(config.DateLayout),

		ShootDMMean: mean,
		ShootDMStd:  std,
		ShootDMP10:  p10,
		ShootDMP50:  p50,
		ShootDMP90:  p90,

		Growth:      c.growth,
		Litter:      c.litter,
		Senesced:    c.senesced,
		Defoliated:  c.defoliated,
		NUptake:     c.nUptake,
		NFixed:      c.nFixed,
		WaterUptake: c.waterUptake,
		Drainage:    c.drainage,
		Runoff:      c.runoff,
		Evaporation: c.evaporation,
		Mineralised: c.mineralised,

		PlantDM:   pools.PlantDM,
		PlantN:    pools.PlantN,
		SoilWater: pools.SoilWater,
		MineralN:  pools.MineralN,
		SurfaceDM: pools.SurfaceDM,
		SurfaceN:  pools.SurfaceN,
		FOMDM:     pools.FOMDM,
		FOMN:      pools.FOMN,
	}
	for i := range reports {
		if reports[i].Alive {
			stats.AliveSpecies++
		}
		stats.ShootDM += reports[i].ShootDM
		stats.RootDM += reports[i].RootDM
	}
	if c.plantDays > 0 {
		n := float64(c.plantDays)
		stats.GLFWaterMean = c.glfWater / n
		stats.GLFNMean = c.glfN / n
		stats.GLFTempMean = c.glfTemp / n
	}

	// Reset for next window
	*c = Collector{
		windowDays:     c.windowDays,
		windowStartDay: day,
		shootDM:        c.shootDM[:0],
	}
	return stats
}

// Reset discards the current window and starts a new one at day, as when
// resuming a run.
func (c *Collector) Reset(day int) {
	*c = Collector{
		windowDays:     c.windowDays,
		windowStartDay: day,
		shootDM:        c.shootDM[:0],
	}
}

// WindowDays returns the number of days per window.
func (c *Collector) WindowDays() int {
	return c.windowDays
}
