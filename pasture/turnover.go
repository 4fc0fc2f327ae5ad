package pasture

import (
	"math"

	"github.com/pthm-cable/sward/traits"
)

// TurnoverRates are the daily fractions moved out of each tissue stage.
type TurnoverRates struct {
	Live   float64 // leaf and stem, stage to stage
	Stolon float64
	Dead   float64 // dead to litter
	Root   float64 // root senescence
}

// turnoverRates computes today's rates from temperature, water status and
// grazing, then applies the phenology of annuals.
func (s *Species) turnoverRates() TurnoverRates {
	p := &s.p
	d := &s.day
	tempFac := TurnoverTempFactor(d.Tmean, p.TurnoverTmin, p.TurnoverTopt)
	waterFac := TurnoverWaterFactor(d.GLFWater, p.TurnoverGLFWaterOpt, p.TurnoverWaterFactorMax)

	r := TurnoverRates{}
	r.Live = p.TurnoverLiveToDead * tempFac * waterFac
	r.Stolon = r.Live
	r.Dead = p.TurnoverDeadToLitter*math.Pow(d.GLFWater, 3)*p.DigestibilityDead/0.4 +
		p.StockParameter*p.StockingRate
	r.Root = p.TurnoverRootSenescence * tempFac * (2 - d.GLFWater)

	if r.Live <= 0 {
		return r
	}
	if s.Traits.Has(traits.Annual) {
		ph := &s.phen
		switch ph.stage {
		case stageVegetative:
			f := divide(float64(ph.daysEmerged), float64(ph.daysEmgToAnth), 1)
			r.Live *= f
			r.Root *= f
		case stageReproductive:
			f := divide(float64(ph.daysAnthesis), float64(p.DaysToMature), 1)
			r.Live = 1 - (1-r.Live)*(1-f*f)
		}
	}

	// Stolons senesce faster after defoliation
	prev := &s.prev
	fracDefol := divide(d.Defoliated, d.Defoliated+prev.ShootDM(), 0)
	r.Stolon += fracDefol * (1 - r.Live)
	return r
}

// limitToMinimumGreen scales the rates down so that turnover does not take
// live shoot DM below the minimum green weight.
func (s *Species) limitToMinimumGreen(r TurnoverRates) TurnoverRates {
	prev := &s.prev
	minGreen := s.p.MinimumGreenWt
	loss := r.Live*(prev.DMLeaf[2]+prev.DMStem[2]) + r.Stolon*prev.DMStolon[2]
	before := prev.GreenDM() + s.day.GrowthShoot
	if loss <= 0 || before-loss >= minGreen {
		return r
	}
	if before < minGreen {
		return TurnoverRates{}
	}
	f := (before - minGreen) / loss
	r.Live *= f
	r.Stolon *= f
	r.Dead *= f
	r.Root *= f
	return r
}

// stageTransfer moves DM and N through stages 1-3 of a tissue at rate g.
// Stage 1 turns over at twice the rate. It returns the DM and N leaving
// stage 3.
func stageTransfer(dm, n []float64, prevDM, prevN []float64, g float64) (float64, float64) {
	in, inN := 0.0, 0.0
	for k := 0; k < 3; k++ {
		rate := g
		if k == 0 {
			rate = math.Min(2*g, 1)
		}
		out := rate * prevDM[k]
		outN := out * conc(prevN[k], prevDM[k])
		dm[k] += in - out
		n[k] += inN - outN
		in, inN = out, outN
	}
	return in, inN
}

// tissueTurnover moves DM and N through the tissue stages, senesces roots,
// diverts C and N from senescing tissue for remobilisation and computes
// today's litter and tomorrow's remobilisable pools.
func (s *Species) tissueTurnover() error {
	p := &s.p
	d := &s.day
	prev := &s.prev
	c := &s.cur

	r := s.turnoverRates()
	if r.Live > 0 {
		r = s.limitToMinimumGreen(r)
		if c.DMRoot < 0.5*p.MinimumGreenWt {
			r.Root = 0
		}
	}
	d.Turnover = r

	d.Litter, d.NLitter = 0, 0
	d.RootSenesced, d.NRootSenesced = 0, 0
	nRemob, chRemob := 0.0, 0.0

	if r.Live > 0 {
		protein := func(dm, nc, nmin float64) float64 {
			return dm * math.Max(0, nc-nmin) * cnRatioProtein * p.FacCNRemob
		}

		// Leaves and stems: stage 3 senesces into stage 4, stage 4 to litter
		for _, t := range []struct {
			name          string
			dm, n         []float64
			prevDM, prevN []float64
			nmin          float64
		}{
			{"leaf", c.DMLeaf[:], c.NLeaf[:], prev.DMLeaf[:], prev.NLeaf[:], s.leafN.Min},
			{"stem", c.DMStem[:], c.NStem[:], prev.DMStem[:], prev.NStem[:], s.stemN.Min},
		} {
			in, _ := stageTransfer(t.dm, t.n, t.prevDM, t.prevN, r.Live)
			nc3 := conc(t.prevN[2], t.prevDM[2])
			sugar := in * p.KappaCRemob
			prot := protein(in, nc3, t.nmin)
			in -= sugar + prot
			if in < 0 {
				return s.massBalance("C remobilisation - "+t.name, in, 0)
			}
			out := r.Dead * t.prevDM[3]
			outN := out * conc(t.prevN[3], t.prevDM[3])
			t.dm[3] += in - out
			t.n[3] += in*t.nmin - outN
			d.Litter += out
			d.NLitter += outN
			nRemob += in * math.Max(0, nc3-t.nmin)
			chRemob += sugar + prot
		}

		// Stolons have no dead stage; senesced stolons go straight to litter
		in, _ := stageTransfer(c.DMStolon[:], c.NStolon[:], prev.DMStolon[:], prev.NStolon[:], r.Stolon)
		nc3 := prev.NconcStolon(2)
		sugar := in * p.KappaCRemob
		prot := protein(in, nc3, s.stolonN.Min)
		in -= sugar + prot
		if in < 0 {
			return s.massBalance("C remobilisation - stolon", in, 0)
		}
		excess := 0.5 * in * math.Max(0, nc3-s.stolonN.Min)
		d.Litter += in
		d.NLitter += in*s.stolonN.Min + excess
		nRemob += excess
		chRemob += sugar + prot

		// Roots
		sen := r.Root * prev.DMRoot
		c.DMRoot -= sen
		ncR := prev.NconcRoot()
		sugar = sen * p.KappaCRemob
		prot = protein(sen, ncR, s.rootN.Min)
		sen -= sugar + prot
		if sen < 0 {
			return s.massBalance("C remobilisation - root", sen, 0)
		}
		excess = 0.5 * sen * math.Max(0, ncR-s.rootN.Min)
		c.NRoot -= r.Root * prev.NRoot
		d.RootSenesced = sen
		d.NRootSenesced = r.Root*prev.NRoot - excess
		nRemob += excess
		chRemob += sugar + prot
	}

	d.GrowthShoot -= d.Litter
	d.GrowthRoot -= d.RootSenesced

	// Remobilisable N not used in today's growth is lost with the litter
	d.NLitter += d.NRemobilising
	d.NRemobilising = 0

	s.cRemobilisable = chRemob * CarbonFractionInDM
	s.nRemobilised = nRemob
	d.NRemobilised = nRemob
	s.updateLuxuryN()
	return nil
}

// updateLuxuryN computes the N held above the optimum concentration in
// stages 2 and 3 that can be remobilised tomorrow.
func (s *Species) updateLuxuryN() {
	p := &s.p
	c := &s.cur
	rel := p.RelativeNStage3
	lux := func(k int) float64 {
		return math.Max(0, c.NLeaf[k]-c.DMLeaf[k]*s.leafN.Opt*rel) +
			math.Max(0, c.NStem[k]-c.DMStem[k]*s.stemN.Opt*rel) +
			math.Max(0, c.NStolon[k]-c.DMStolon[k]*s.stolonN.Opt*rel)
	}
	s.nLuxury2 = lux(1) * p.KappaNRemob2
	s.nLuxury3 = lux(2) * p.KappaNRemob3
}
