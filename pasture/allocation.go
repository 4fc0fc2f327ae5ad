package pasture

import (
	"math"

	"github.com/pthm-cable/sward/traits"
)

// Partition holds the fractions of the day's new growth sent to each organ.
type Partition struct {
	Leaf, Stem, Stolon, Root float64
}

// Sum returns the total of the fractions.
func (p Partition) Sum() float64 { return p.Leaf + p.Stem + p.Stolon + p.Root }

// seasonalShootFactor raises the targeted shoot:root ratio over a window
// starting at the given day of year: a linear rise, a plateau, then a linear
// decline. The window may run past the end of the year.
func seasonalShootFactor(doy, doyStart int, periods []int, increase float64) float64 {
	doyIncrease := doyStart + periods[0]
	doyPlateau := doyIncrease + periods[1]
	doyDecrease := doyPlateau + periods[2]

	if doy <= doyStart && doyDecrease > 365 {
		// window runs into the new year
		doy += 365
	}
	switch {
	case doy <= doyStart:
		return 1
	case doy < doyIncrease:
		return 1 + increase*divide(float64(doy-doyStart), float64(periods[0]), 0)
	case doy <= doyPlateau:
		return 1 + increase
	case doy <= doyDecrease:
		return 1 + increase*(1-divide(float64(doy-doyPlateau), float64(periods[2]), 0))
	}
	return 1
}

// toShootFraction is the fraction of new growth allocated to shoots. It
// steers the shoot:root ratio towards a seasonal target; water or N stress
// shifts allocation towards roots.
func (s *Species) toShootFraction() float64 {
	prevRoot := s.prev.DMRoot
	if prevRoot <= 1e-5 {
		return 1
	}
	p := &s.p
	doy := s.clock.Today().YearDay()
	fac := seasonalShootFactor(doy, p.DayInitHigherShootAllocation,
		p.HigherShootAllocationPeriods, p.ShootSeasonalAllocationIncrease)

	present := s.cur.GreenDM() / prevRoot
	if present < epsilon {
		return 1
	}
	target := fac * p.MaxSRRatio()
	newSR := target
	if present <= target {
		newSR = target * target / present
	}
	// today's water status, yesterday's N status
	newSR *= math.Min(s.day.GLFWater, s.glfN)

	result := newSR / (1 + newSR)
	if result/(1-result) < target {
		result = target / (1 + target)
	}
	return result
}

// leafFraction is the fraction of shoot growth allocated to leaves. With a
// dynamic leaf fraction, a light sward puts more of its growth into leaves.
func (s *Species) leafFraction() float64 {
	p := &s.p
	if !p.DynamicLeafFraction {
		return p.FracToLeaf
	}
	green := s.cur.GreenDM()
	stolon := s.cur.StolonDM()
	result := p.FracToLeaf
	if s.Traits.Has(traits.Legume) {
		switch {
		case green > 0 && stolon/green > p.FracToStolon:
			result = 1
		case green+stolon < 2000:
			result = p.FracToLeaf + (1-p.FracToLeaf)*(green+stolon)/2000
		}
	} else if green < 2000 {
		result = p.FracToLeaf + (1-p.FracToLeaf)*green/2000
	}
	return math.Min(result, 1-p.FracToStolon)
}

// partitionNewGrowth adds the day's actual growth and its N to the first
// stage of each organ, returns leftover remobilised N to dead tissue and
// credits remobilised luxury N back to the stages it came from.
func (s *Species) partitionNewGrowth() error {
	d := &s.day
	if d.GrowthActual <= 0 {
		d.GrowthShoot = 0
		d.GrowthRoot = 0
		return nil
	}
	p := &s.p

	part := Partition{
		Leaf:   d.FracShoot * d.FracLeaf,
		Stem:   d.FracShoot * (1 - p.FracToStolon - d.FracLeaf),
		Stolon: d.FracShoot * p.FracToStolon,
		Root:   1 - d.FracShoot,
	}
	if sum := part.Sum(); math.Abs(sum-1) > 1e-4 {
		return s.massBalance("partition of new growth DM", sum, 1)
	}
	d.PartitionDM = part

	c := &s.cur
	c.DMLeaf[0] += part.Leaf * d.GrowthActual
	c.DMStem[0] += part.Stem * d.GrowthActual
	c.DMStolon[0] += part.Stolon * d.GrowthActual
	c.DMRoot += part.Root * d.GrowthActual
	d.GrowthShoot = (part.Leaf + part.Stem + part.Stolon) * d.GrowthActual
	d.GrowthRoot = part.Root * d.GrowthActual

	// N follows DM weighted by the maximum concentration of each organ
	nsum := part.Leaf*s.leafN.Max + part.Stem*s.stemN.Max + part.Stolon*s.stolonN.Max + part.Root*s.rootN.Max
	partN := Partition{
		Leaf:   part.Leaf * divide(s.leafN.Max, nsum, 0),
		Stem:   part.Stem * divide(s.stemN.Max, nsum, 0),
		Stolon: part.Stolon * divide(s.stolonN.Max, nsum, 0),
		Root:   part.Root * divide(s.rootN.Max, nsum, 0),
	}
	if sum := partN.Sum(); math.Abs(sum-1) > 1e-4 {
		return s.massBalance("partition of new growth N", sum, 1)
	}
	d.PartitionN = partN

	c.NLeaf[0] += partN.Leaf * d.NewGrowthN
	c.NStem[0] += partN.Stem * d.NewGrowthN
	c.NStolon[0] += partN.Stolon * d.NewGrowthN
	c.NRoot += partN.Root * d.NewGrowthN

	// Part of the unused remobilisable N stays in dead leaves and stems
	prev := &s.prev
	leftover := d.NRemobilising * p.KappaNRemob4
	if n4 := prev.NLeaf[3] + prev.NStem[3]; leftover > 0 && n4 > 0 {
		c.NLeaf[3] += leftover * prev.NLeaf[3] / n4
		c.NStem[3] += leftover * prev.NStem[3] / n4
		d.NRemobilising -= leftover
	}

	// Remobilised luxury N moves from stages 2 and 3 into the new growth
	if d.NFastRemob2 > 0 {
		s.debitStage(1, d.NFastRemob2)
	}
	if d.NFastRemob3 > 0 {
		s.debitStage(2, d.NFastRemob3)
	}
	return nil
}

// debitStage removes n from stage k of leaf, stem and stolon in proportion
// to their N at the start of the day.
func (s *Species) debitStage(k int, n float64) {
	prev := &s.prev
	c := &s.cur
	nsum := prev.NLeaf[k] + prev.NStem[k] + prev.NStolon[k]
	if nsum <= 0 {
		return
	}
	c.NLeaf[k] -= n * prev.NLeaf[k] / nsum
	c.NStem[k] -= n * prev.NStem[k] / nsum
	c.NStolon[k] -= n * prev.NStolon[k] / nsum
}
