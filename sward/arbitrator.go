package sward

import (
	"math"

	"github.com/pthm-cable/sward/components"
)

// Arbitrator shares the soil water and mineral N among the plants of a
// sward. Each day it collects every plant's potential uptake, scales the
// potentials down where a layer cannot supply them all, and hands each
// plant its share through the pasture.Arbitrator interface.
type Arbitrator struct {
	uptake map[string]*components.Uptake
}

// NewArbitrator creates an arbitrator with no plants registered.
func NewArbitrator() *Arbitrator {
	return &Arbitrator{uptake: make(map[string]*components.Uptake)}
}

// bind points the arbitrator at the uptake component of each plant for
// the current day.
func (a *Arbitrator) bind(name string, u *components.Uptake) {
	a.uptake[name] = u
}

// WaterUptake returns the water (mm per layer) a plant may take today.
func (a *Arbitrator) WaterUptake(species string) ([]float64, bool) {
	u, ok := a.uptake[species]
	if !ok || !u.WaterResolved {
		return nil, false
	}
	return u.Water, true
}

// NUptake returns the NH4 and NO3 (kg/ha per layer) a plant may take today.
func (a *Arbitrator) NUptake(species string) (nh4, no3 []float64, ok bool) {
	u, found := a.uptake[species]
	if !found || !u.NResolved {
		return nil, nil, false
	}
	return u.NH4, u.NO3, true
}

// ShareWater limits the potential uptake of each plant (mm per layer) so
// that no layer gives more than it holds above the lowest lower limit of
// the plants drawing on it. potential is scaled in place.
func ShareWater(potential, lowerLimit [][]float64, water []float64) {
	for l := range water {
		total := 0.0
		ll := math.Inf(1)
		for i := range potential {
			if potential[i][l] <= 0 {
				continue
			}
			total += potential[i][l]
			ll = math.Min(ll, lowerLimit[i][l])
		}
		if total <= 0 {
			continue
		}
		scaleLayer(potential, l, math.Max(0, water[l]-ll)/total)
	}
}

// ShareN limits the potential NH4 and NO3 uptake of each plant so that no
// layer gives more than it holds. The slices are scaled in place.
func ShareN(nh4Pot, no3Pot [][]float64, nh4, no3 []float64) {
	for l := range nh4 {
		shareLayer(nh4Pot, l, nh4[l])
		shareLayer(no3Pot, l, no3[l])
	}
}

func shareLayer(potential [][]float64, l int, avail float64) {
	total := 0.0
	for i := range potential {
		total += potential[i][l]
	}
	if total <= 0 {
		return
	}
	scaleLayer(potential, l, math.Max(0, avail)/total)
}

// scaleLayer scales layer l of every plant's potential by f when f < 1.
func scaleLayer(potential [][]float64, l int, f float64) {
	if f >= 1 {
		return
	}
	for i := range potential {
		potential[i][l] *= f
	}
}
