package soil

import "math"

// overflow adds in to a store with the given capacity, returning the new
// store and the excess that did not fit.
func overflow(store, in, capacity float64) (float64, float64) {
	store += in
	if store > capacity {
		return capacity, store - capacity
	}
	return store, 0
}

// Infiltrate adds rain (mm) to the profile, filling each layer to
// saturation from the top down. Rain the profile cannot hold runs off.
func (p *Profile) Infiltrate(rain float64) (runoff float64) {
	if rain <= 0 {
		return 0
	}
	in := rain
	for i := range p.water {
		p.water[i], in = overflow(p.water[i], in, p.sat[i])
		if in <= 0 {
			return 0
		}
	}
	return in
}

// Drain moves a fraction of the water held above field capacity in each
// layer to the layer below, limited by the layer conductivity. Water leaving
// the bottom layer is returned as deep drainage (mm).
func (p *Profile) Drain() (drainage float64) {
	in := 0.0
	for i := range p.water {
		var excess float64
		p.water[i], excess = overflow(p.water[i], in, p.sat[i])
		out := math.Min(p.drainage*math.Max(0, p.water[i]-p.dul[i]), p.ksat[i])
		p.water[i] -= out
		in = out + excess
	}
	return in
}

// Evaporate removes soil evaporation from the top layer: the evaporation
// coefficient times the potential rate on the uncovered fraction of the
// ground. The top layer dries down to half its LL15. It returns the water
// evaporated (mm).
func (p *Profile) Evaporate(pet, cover float64) float64 {
	if pet <= 0 || len(p.water) == 0 {
		return 0
	}
	demand := p.evaporation * pet * (1 - math.Max(0, math.Min(1, cover)))
	airDry := 0.5 * p.ll15[0]
	es := math.Min(demand, math.Max(0, p.water[0]-airDry))
	p.water[0] -= es
	return es
}
