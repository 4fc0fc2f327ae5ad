package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated sward statistics for a window of days.
type WindowStats struct {
	WindowStartDay int    `csv:"-"`
	WindowEndDay   int    `csv:"window_end"`
	Date           string `csv:"date"`

	// Plants at window end
	AliveSpecies int     `csv:"alive_species"`
	ShootDM      float64 `csv:"shoot_dm"`
	RootDM       float64 `csv:"root_dm"`

	// Daily sward shoot DM over the window
	ShootDMMean float64 `csv:"shoot_dm_mean"`
	ShootDMStd  float64 `csv:"shoot_dm_std"`
	ShootDMP10  float64 `csv:"shoot_dm_p10"`
	ShootDMP50  float64 `csv:"shoot_dm_p50"`
	ShootDMP90  float64 `csv:"shoot_dm_p90"`

	// Fluxes summed over the window (kg/ha, mm)
	Growth      float64 `csv:"growth"`
	Litter      float64 `csv:"litter"`
	Senesced    float64 `csv:"root_senesced"`
	Defoliated  float64 `csv:"defoliated"`
	NUptake     float64 `csv:"n_uptake"`
	NFixed      float64 `csv:"n_fixed"`
	WaterUptake float64 `csv:"water_uptake"`
	Drainage    float64 `csv:"drainage"`
	Runoff      float64 `csv:"runoff"`
	Evaporation float64 `csv:"evaporation"`
	Mineralised float64 `csv:"mineralised"`

	// Limiting factors averaged over plant-days
	GLFWaterMean float64 `csv:"glf_water_mean"`
	GLFNMean     float64 `csv:"glf_n_mean"`
	GLFTempMean  float64 `csv:"glf_temp_mean"`

	// Pools at window end (for mass balance validation)
	PlantDM   float64 `csv:"plant_dm"`
	PlantN    float64 `csv:"plant_n"`
	SoilWater float64 `csv:"soil_water"`
	MineralN  float64 `csv:"mineral_n"`
	SurfaceDM float64 `csv:"surface_dm"`
	SurfaceN  float64 `csv:"surface_n"`
	FOMDM     float64 `csv:"fom_dm"`
	FOMN      float64 `csv:"fom_n"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, population std and percentiles.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartDay),
		slog.Int("window_end", s.WindowEndDay),
		slog.String("date", s.Date),
		slog.Int("alive_species", s.AliveSpecies),
		slog.Float64("shoot_dm", s.ShootDM),
		slog.Float64("root_dm", s.RootDM),
		slog.Float64("shoot_dm_mean", s.ShootDMMean),
		slog.Float64("shoot_dm_p10", s.ShootDMP10),
		slog.Float64("shoot_dm_p50", s.ShootDMP50),
		slog.Float64("shoot_dm_p90", s.ShootDMP90),
		slog.Float64("growth", s.Growth),
		slog.Float64("defoliated", s.Defoliated),
		slog.Float64("n_uptake", s.NUptake),
		slog.Float64("n_fixed", s.NFixed),
		slog.Float64("water_uptake", s.WaterUptake),
		slog.Float64("drainage", s.Drainage),
		slog.Float64("glf_water_mean", s.GLFWaterMean),
		slog.Float64("glf_n_mean", s.GLFNMean),
		slog.Float64("soil_water", s.SoilWater),
		slog.Float64("mineral_n", s.MineralN),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndDay,
		"date", s.Date,
		"alive_species", s.AliveSpecies,
		"shoot_dm", s.ShootDM,
		"root_dm", s.RootDM,
		"shoot_dm_p50", s.ShootDMP50,
		"growth", s.Growth,
		"litter", s.Litter,
		"defoliated", s.Defoliated,
		"n_uptake", s.NUptake,
		"n_fixed", s.NFixed,
		"water_uptake", s.WaterUptake,
		"drainage", s.Drainage,
		"runoff", s.Runoff,
		"evaporation", s.Evaporation,
		"glf_water_mean", s.GLFWaterMean,
		"glf_n_mean", s.GLFNMean,
		"glf_temp_mean", s.GLFTempMean,
	)
}
