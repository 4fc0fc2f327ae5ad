package soil

import "math"

// Daily decomposition rates at 20 oC.
const (
	surfaceDecayRate = 0.02
	fomDecayRate     = 0.03
)

// organicPools holds the residue returned by the plants until it
// decomposes. Each pool releases its N as NH4.
type organicPools struct {
	surfaceDM, surfaceN float64
	fomDM, fomN         []float64
}

func newOrganicPools(n int) organicPools {
	return organicPools{fomDM: make([]float64, n), fomN: make([]float64, n)}
}

// AddSurfaceResidue receives litter and defoliated shoots left on the ground.
func (p *Profile) AddSurfaceResidue(species string, dm, n float64) {
	p.om.surfaceDM += dm
	p.om.surfaceN += n
	p.log.Debug("surface residue", "species", species, "dm", dm, "n", n)
}

// IncorporateFOM receives senesced roots, layer by layer.
func (p *Profile) IncorporateFOM(species string, dm, n []float64) {
	for i := range dm {
		if i >= len(p.om.fomDM) {
			break
		}
		p.om.fomDM[i] += dm[i]
		p.om.fomN[i] += n[i]
	}
}

// decayFactor scales decomposition by temperature and moisture, 1 at 20 oC
// in a layer at field capacity.
func decayFactor(tmean, water, ll15, dul float64) float64 {
	tf := math.Max(0, math.Min(1, tmean/20))
	wf := 1.0
	if dul > ll15 {
		wf = math.Max(0, math.Min(1, (water-ll15)/(dul-ll15)))
	}
	return tf * wf
}

// Decompose breaks down residue and fresh organic matter for one day and
// mineralises its N into NH4. It returns the N mineralised (kg/ha).
func (p *Profile) Decompose(tmean float64) float64 {
	if len(p.water) == 0 {
		return 0
	}
	mineral := 0.0

	f := decayFactor(tmean, p.water[0], p.ll15[0], p.dul[0]) * surfaceDecayRate
	dN := p.om.surfaceN * f
	p.om.surfaceDM -= p.om.surfaceDM * f
	p.om.surfaceN -= dN
	p.nh4[0] += dN
	mineral += dN

	for i := range p.om.fomDM {
		f := decayFactor(tmean, p.water[i], p.ll15[i], p.dul[i]) * fomDecayRate
		dN := p.om.fomN[i] * f
		p.om.fomDM[i] -= p.om.fomDM[i] * f
		p.om.fomN[i] -= dN
		p.nh4[i] += dN
		mineral += dN
	}
	return mineral
}
