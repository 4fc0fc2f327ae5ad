// Package soil provides a simple layered soil for the sward: a cascading
// water bucket per layer, mineral N pools and an organic matter sink for
// litter and senesced roots.
package soil

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/pasture"
)

// Profile is a layered soil. Water is held in mm per layer, mineral N in
// kg/ha per layer. It implements pasture.Soil and pasture.OrganicMatter.
type Profile struct {
	thickness []float64
	ll15      []float64 // mm
	dul       []float64 // mm
	sat       []float64 // mm
	ksat      []float64 // mm/day
	water     []float64 // mm
	nh4       []float64
	no3       []float64

	crops map[string]pasture.SoilCrop
	ll    []float64 // default crop lower limit, mm/mm
	kl    []float64

	drainage    float64
	evaporation float64

	om  organicPools
	log *slog.Logger
}

// New builds a profile from its layer configuration. Volumetric water
// contents are converted to mm. Every named species gets the layer LL and
// KL as its root-zone parameters.
func New(cfg config.SoilConfig, species ...string) (*Profile, error) {
	n := len(cfg.Layers)
	if n == 0 {
		return nil, fmt.Errorf("soil: no layers")
	}
	p := &Profile{
		thickness:   make([]float64, n),
		ll15:        make([]float64, n),
		dul:         make([]float64, n),
		sat:         make([]float64, n),
		ksat:        make([]float64, n),
		water:       make([]float64, n),
		nh4:         make([]float64, n),
		no3:         make([]float64, n),
		ll:          make([]float64, n),
		kl:          make([]float64, n),
		crops:       make(map[string]pasture.SoilCrop),
		drainage:    cfg.Drainage,
		evaporation: cfg.Evaporation,
		om:          newOrganicPools(n),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i, l := range cfg.Layers {
		if l.Thickness <= 0 {
			return nil, fmt.Errorf("soil: layer %d: thickness must be positive", i)
		}
		if l.SW < l.LL15 || l.SW > l.SAT {
			return nil, fmt.Errorf("soil: layer %d: initial water %.3f outside [ll15, sat]", i, l.SW)
		}
		p.thickness[i] = l.Thickness
		p.ll15[i] = l.LL15 * l.Thickness
		p.dul[i] = l.DUL * l.Thickness
		p.sat[i] = l.SAT * l.Thickness
		p.water[i] = l.SW * l.Thickness
		p.ksat[i] = l.KSat
		p.nh4[i] = l.NH4
		p.no3[i] = l.NO3
		p.ll[i] = l.LL
		p.kl[i] = l.KL
	}
	for _, name := range species {
		p.crops[name] = pasture.SoilCrop{
			LL: append([]float64(nil), p.ll...),
			KL: append([]float64(nil), p.kl...),
		}
	}
	return p, nil
}

// SetLogger sets the logger used for soil warnings.
func (p *Profile) SetLogger(l *slog.Logger) {
	if l != nil {
		p.log = l.With("component", "soil")
	}
}

// SetCrop sets the root-zone parameters for a species.
func (p *Profile) SetCrop(name string, c pasture.SoilCrop) error {
	if len(c.LL) != len(p.thickness) || len(c.KL) != len(p.thickness) {
		return fmt.Errorf("soil: crop %q: need %d layers of LL and KL", name, len(p.thickness))
	}
	p.crops[name] = c
	return nil
}

// NumLayers returns the number of soil layers.
func (p *Profile) NumLayers() int { return len(p.thickness) }

func (p *Profile) Thickness() []float64 { return p.thickness }
func (p *Profile) Water() []float64     { return p.water }
func (p *Profile) LL15() []float64      { return p.ll15 }
func (p *Profile) DUL() []float64       { return p.dul }
func (p *Profile) SAT() []float64       { return p.sat }
func (p *Profile) KSat() []float64      { return p.ksat }
func (p *Profile) NH4() []float64       { return p.nh4 }
func (p *Profile) NO3() []float64       { return p.no3 }

// Crop returns the root-zone parameters for a species.
func (p *Profile) Crop(name string) (pasture.SoilCrop, bool) {
	c, ok := p.crops[name]
	return c, ok
}

// ApplyWaterDelta adds delta (mm) to each layer. A layer is never taken
// below zero.
func (p *Profile) ApplyWaterDelta(delta []float64) {
	for i, d := range delta {
		p.water[i] += d
		if p.water[i] < 0 {
			p.log.Warn("water uptake below empty", "layer", i, "water", p.water[i])
			p.water[i] = 0
		}
	}
}

// ApplyNDelta adds the NH4 and NO3 deltas (kg/ha) to each layer.
func (p *Profile) ApplyNDelta(dNH4, dNO3 []float64) {
	for i := range dNH4 {
		p.nh4[i] = max(0, p.nh4[i]+dNH4[i])
		p.no3[i] = max(0, p.no3[i]+dNO3[i])
	}
}

// Balance summarises the profile for reporting.
type Balance struct {
	Water     float64 // mm
	Available float64 // mm above LL15
	NH4       float64 // kg/ha
	NO3       float64 // kg/ha
	SurfaceDM float64 // kg/ha of residue on the surface
	SurfaceN  float64
	FOMDM     float64 // kg/ha of fresh organic matter in the profile
	FOMN      float64
}

// Balance returns the current totals.
func (p *Profile) Balance() Balance {
	avail := 0.0
	for i, w := range p.water {
		avail += max(0, w-p.ll15[i])
	}
	return Balance{
		Water:     floats.Sum(p.water),
		Available: avail,
		NH4:       floats.Sum(p.nh4),
		NO3:       floats.Sum(p.no3),
		SurfaceDM: p.om.surfaceDM,
		SurfaceN:  p.om.surfaceN,
		FOMDM:     floats.Sum(p.om.fomDM),
		FOMN:      floats.Sum(p.om.fomN),
	}
}

// State is the soil content that changes from day to day.
type State struct {
	Water []float64 `json:"water"` // mm
	NH4   []float64 `json:"nh4"`   // kg/ha
	NO3   []float64 `json:"no3"`   // kg/ha

	SurfaceDM float64   `json:"surface_dm"`
	SurfaceN  float64   `json:"surface_n"`
	FOMDM     []float64 `json:"fom_dm"`
	FOMN      []float64 `json:"fom_n"`
}

// State returns a copy of the current soil content.
func (p *Profile) State() State {
	return State{
		Water:     append([]float64(nil), p.water...),
		NH4:       append([]float64(nil), p.nh4...),
		NO3:       append([]float64(nil), p.no3...),
		SurfaceDM: p.om.surfaceDM,
		SurfaceN:  p.om.surfaceN,
		FOMDM:     append([]float64(nil), p.om.fomDM...),
		FOMN:      append([]float64(nil), p.om.fomN...),
	}
}

// Restore replaces the soil content. Every layered slice must match the
// profile and water must lie within [0, sat].
func (p *Profile) Restore(s State) error {
	n := len(p.thickness)
	for _, l := range []struct {
		name string
		v    []float64
	}{
		{"water", s.Water}, {"nh4", s.NH4}, {"no3", s.NO3}, {"fom_dm", s.FOMDM}, {"fom_n", s.FOMN},
	} {
		if len(l.v) != n {
			return fmt.Errorf("soil: restore %s: %d layers, want %d", l.name, len(l.v), n)
		}
		for i, x := range l.v {
			if x < 0 {
				return fmt.Errorf("soil: restore %s: layer %d is negative", l.name, i)
			}
		}
	}
	for i, w := range s.Water {
		if w > p.sat[i]+1e-9 {
			return fmt.Errorf("soil: restore water: layer %d above saturation", i)
		}
	}
	copy(p.water, s.Water)
	copy(p.nh4, s.NH4)
	copy(p.no3, s.NO3)
	copy(p.om.fomDM, s.FOMDM)
	copy(p.om.fomN, s.FOMN)
	p.om.surfaceDM = s.SurfaceDM
	p.om.surfaceN = s.SurfaceN
	return nil
}
