package sward

import (
	"math"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/pasture"
)

// PartitionLight shares the day's radiation (MJ/m2) and potential
// evapotranspiration (mm) among the canopies of a sward. The sward
// intercepts 1 - exp(-sum of k*LAI) of the radiation and each canopy gets
// its k*LAI share of that. It returns the sward's green cover.
func PartitionLight(canopies []pasture.CanopyDescriptor, radn, pet float64, out []components.Microclimate) float64 {
	total := 0.0
	for i := range canopies {
		total += canopies[i].K * canopies[i].LAIGreen
	}
	if total <= 0 {
		for i := range out {
			out[i] = components.Microclimate{}
		}
		return 0
	}

	cover := 1 - math.Exp(-total)
	for i := range canopies {
		share := canopies[i].K * canopies[i].LAIGreen / total
		out[i] = components.Microclimate{
			InterceptedRadn: radn * cover * share,
			PotentialEP:     pet * cover * share,
			LightShare:      share,
		}
	}
	return cover
}
