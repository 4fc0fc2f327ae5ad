package pasture

import "time"

// Clock supplies the simulated date.
type Clock interface {
	Today() time.Time
}

// Weather supplies today's met data.
type Weather interface {
	MaxT() float64 // oC
	MinT() float64 // oC
	CO2() float64  // ppm
	VP() float64   // hPa
	// DayLength returns the hours of daylight, counting twilight down to
	// the given sun angle (degrees).
	DayLength(sunAngle float64) float64
}

// Soil is the layered soil a species roots into. Water amounts are per layer
// in mm, mineral N in kg/ha. The engine treats the arrays as read-only and
// reports uptake through the Apply methods.
type Soil interface {
	Thickness() []float64
	Water() []float64
	LL15() []float64
	DUL() []float64
	SAT() []float64
	KSat() []float64 // mm/day
	NH4() []float64
	NO3() []float64

	// Crop returns the root-zone parameters for the named species.
	Crop(name string) (SoilCrop, bool)

	ApplyWaterDelta(delta []float64)
	ApplyNDelta(dNH4, dNO3 []float64)
}

// SoilCrop holds the per-layer lower limit (mm/mm) and extraction
// coefficient for one species.
type SoilCrop struct {
	LL []float64
	KL []float64
}

// OrganicMatter receives litter and senesced roots.
type OrganicMatter interface {
	// AddSurfaceResidue receives shoot material returned to the surface.
	AddSurfaceResidue(species string, dm, n float64)
	// IncorporateFOM receives root material per soil layer.
	IncorporateFOM(species string, dm, n []float64)
}

// Arbitrator divides soil water and N among the plants sharing a soil. It
// queries each plant's potential uptake (PotentialWaterUptake,
// PotentialNUptake) and answers with the amounts that plant may take; the
// answers are final before the plant's own growth step runs.
type Arbitrator interface {
	WaterUptake(species string) ([]float64, bool)
	NUptake(species string) (nh4, no3 []float64, ok bool)
}

// UptakeStrategy selects who computes soil uptake.
type UptakeStrategy int

const (
	// UptakeSelf computes uptake from this plant's own view of the soil.
	UptakeSelf UptakeStrategy = iota
	// UptakeArbitrated takes uptake resolved by an Arbitrator.
	UptakeArbitrated
)

func (u UptakeStrategy) String() string {
	if u == UptakeArbitrated {
		return "arbitrated"
	}
	return "self"
}
