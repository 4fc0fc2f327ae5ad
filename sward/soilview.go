package sward

import (
	"github.com/pthm-cable/sward/soil"
)

// soilView is one plant's window on the shared profile. Reads go straight
// to the profile; uptake and organic matter returns are held until flush,
// so plants can grow concurrently against the same soil state.
type soilView struct {
	*soil.Profile
	name string

	water    []float64
	nh4, no3 []float64
	pendingW bool
	pendingN bool

	surfaceDM, surfaceN float64
	fomDM, fomN         []float64
	pendingSurface      bool
	pendingFOM          bool
}

func newSoilView(p *soil.Profile, name string) *soilView {
	n := p.NumLayers()
	return &soilView{
		Profile: p,
		name:    name,
		water:   make([]float64, n),
		nh4:     make([]float64, n),
		no3:     make([]float64, n),
		fomDM:   make([]float64, n),
		fomN:    make([]float64, n),
	}
}

func (v *soilView) ApplyWaterDelta(delta []float64) {
	for i := range delta {
		v.water[i] += delta[i]
	}
	v.pendingW = true
}

func (v *soilView) ApplyNDelta(dNH4, dNO3 []float64) {
	for i := range dNH4 {
		v.nh4[i] += dNH4[i]
		v.no3[i] += dNO3[i]
	}
	v.pendingN = true
}

func (v *soilView) AddSurfaceResidue(_ string, dm, n float64) {
	v.surfaceDM += dm
	v.surfaceN += n
	v.pendingSurface = true
}

func (v *soilView) IncorporateFOM(_ string, dm, n []float64) {
	for i := range dm {
		if i >= len(v.fomDM) {
			break
		}
		v.fomDM[i] += dm[i]
		v.fomN[i] += n[i]
	}
	v.pendingFOM = true
}

// flush applies the held changes to the profile and clears them.
func (v *soilView) flush() {
	if v.pendingW {
		v.Profile.ApplyWaterDelta(v.water)
		clear(v.water)
		v.pendingW = false
	}
	if v.pendingN {
		v.Profile.ApplyNDelta(v.nh4, v.no3)
		clear(v.nh4)
		clear(v.no3)
		v.pendingN = false
	}
	if v.pendingSurface {
		v.Profile.AddSurfaceResidue(v.name, v.surfaceDM, v.surfaceN)
		v.surfaceDM, v.surfaceN = 0, 0
		v.pendingSurface = false
	}
	if v.pendingFOM {
		v.Profile.IncorporateFOM(v.name, v.fomDM, v.fomN)
		clear(v.fomDM)
		clear(v.fomN)
		v.pendingFOM = false
	}
}
