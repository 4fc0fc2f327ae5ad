package pasture

import (
	"fmt"
	"math"
	"strings"
)

// RemovalType says how a graze or harvest amount is read.
type RemovalType int

const (
	// SetResidueAmount removes everything above a residual standing DM.
	SetResidueAmount RemovalType = iota
	// SetRemoveAmount removes an absolute amount of DM.
	SetRemoveAmount
)

func (t RemovalType) String() string {
	if t == SetRemoveAmount {
		return "SetRemoveAmount"
	}
	return "SetResidueAmount"
}

// ParseRemovalType reads a removal type name, ignoring case.
func ParseRemovalType(name string) (RemovalType, error) {
	switch strings.ToLower(name) {
	case "setresidueamount", "residue":
		return SetResidueAmount, nil
	case "setremoveamount", "remove":
		return SetRemoveAmount, nil
	}
	return 0, fmt.Errorf("%w: unknown removal type %q", ErrInvalidConfig, name)
}

// Graze removes standing DM, bounded by what is harvestable.
func (s *Species) Graze(kind RemovalType, amount float64) error {
	if !s.alive || s.cur.StandingDM() == 0 {
		return nil
	}
	var required float64
	switch kind {
	case SetResidueAmount:
		required = math.Max(0, s.cur.StandingDM()-amount)
	case SetRemoveAmount:
		required = math.Max(0, amount)
	default:
		return fmt.Errorf("species %q: %w: removal type %d", s.Name, ErrInvalidConfig, int(kind))
	}
	if required <= 0 {
		return nil
	}
	return s.RemoveDM(math.Min(required, s.HarvestableWt()))
}

// Harvest is Graze with the removal type given by name.
func (s *Species) Harvest(kind string, amount float64) error {
	t, err := ParseRemovalType(kind)
	if err != nil {
		return fmt.Errorf("species %q: %w", s.Name, err)
	}
	return s.Graze(t, amount)
}

// RemoveDM removes the given amount of standing DM and its N. The amount is
// split between live and dead tissue by the removable mass of each,
// weighted by preference; the harder the grazing, the weaker the
// preference. Live tissue is never taken below the minimum green weight.
// Stolons are not removed.
func (s *Species) RemoveDM(amount float64) error {
	harvestable := s.HarvestableWt()
	if harvestable <= 0 || amount <= 0 {
		return nil
	}
	if amount > harvestable+1e-5 {
		return s.massBalance("removal of DM (more than harvestable)", amount, harvestable)
	}
	p := &s.p
	c := &s.cur
	preDM, preN := c.ShootDM(), c.ShootN()

	prefGreen := p.PreferenceForGreen + p.PreferenceForDead*amount/harvestable
	prefDead := p.PreferenceForDead + p.PreferenceForGreen*amount/harvestable
	removableGreen := math.Max(0, c.StandingLiveDM()-p.MinimumGreenWt)
	removableDead := c.StandingDeadDM()

	total := removableGreen*prefGreen + removableDead*prefDead
	var fracGreen, fracDead float64
	if total > 0 {
		fracGreen = removableGreen * prefGreen / total
		fracDead = removableDead * prefDead / total
	}

	remainGreen := 1.0
	if live := c.StandingLiveDM(); live > 0 {
		remainGreen = clamp01(1 - amount*fracGreen/live)
	}
	remainDead := 1.0
	if dead := c.StandingDeadDM(); dead > 0 {
		remainDead = clamp01(1 - amount*fracDead/dead)
	}

	s.day.DigestDefoliated = s.digestHerbage
	for k := 0; k < 3; k++ {
		c.DMLeaf[k] *= remainGreen
		c.DMStem[k] *= remainGreen
		c.NLeaf[k] *= remainGreen
		c.NStem[k] *= remainGreen
	}
	c.DMLeaf[3] *= remainDead
	c.DMStem[3] *= remainDead
	c.NLeaf[3] *= remainDead
	c.NStem[3] *= remainDead

	// C and N freed by senescence go with the live tissue removed
	s.day.NRemobilisable *= remainGreen
	s.day.CRemobilisable *= remainGreen
	s.nRemobilised *= remainGreen
	s.cRemobilisable *= remainGreen
	s.nLuxury2 *= remainGreen
	s.nLuxury3 *= remainGreen

	if err := s.updateAggregated(); err != nil {
		return err
	}
	defol := preDM - c.ShootDM()
	s.day.Defoliated += defol
	s.day.NDefoliated += preN - c.ShootN()
	s.day.FractionHarvested = divide(s.day.Defoliated, c.StandingDM()+s.day.Defoliated, 0)
	if math.Abs(defol-amount) > 1e-5 {
		return s.massBalance("removal of DM", defol, amount)
	}
	s.evaluateLAI()
	s.evaluateDigestibility()
	return nil
}

// RemoveFractionDM removes a fraction of the green or dead leaves or stems.
// Call RefreshAfterRemove once all removals are done.
func (s *Species) RemoveFractionDM(fraction float64, pool, part string) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("species %q: removal fraction %.4f outside [0,1]", s.Name, fraction)
	}
	c := &s.cur
	keep := 1 - fraction
	var dm, n *[4]float64
	switch strings.ToLower(part) {
	case "leaf":
		dm, n = &c.DMLeaf, &c.NLeaf
	case "stem":
		dm, n = &c.DMStem, &c.NStem
	default:
		return fmt.Errorf("species %q: %w: unknown plant part %q", s.Name, ErrInvalidConfig, part)
	}

	var stages []int
	switch strings.ToLower(pool) {
	case "green":
		stages = []int{0, 1, 2}
	case "dead":
		stages = []int{3}
	default:
		return fmt.Errorf("species %q: %w: unknown plant pool %q", s.Name, ErrInvalidConfig, pool)
	}
	for _, k := range stages {
		s.day.Defoliated += dm[k] * fraction
		s.day.NDefoliated += n[k] * fraction
		dm[k] *= keep
		n[k] *= keep
	}
	return nil
}

// BiomassRemoval is an amount of DM (kg/ha) to take from one pool and part.
type BiomassRemoval struct {
	Pool   string // green or dead
	Part   string // leaf or stem
	Amount float64
}

// RemoveBiomass removes DM from individual pools. A request for more than
// the pool holds is skipped.
func (s *Species) RemoveBiomass(reqs []BiomassRemoval) error {
	s.day.DigestDefoliated = s.digestHerbage
	c := &s.cur
	for _, r := range reqs {
		var have float64
		switch strings.ToLower(r.Pool) + "/" + strings.ToLower(r.Part) {
		case "green/leaf":
			have = c.DMLeaf[0] + c.DMLeaf[1] + c.DMLeaf[2]
		case "green/stem":
			have = c.DMStem[0] + c.DMStem[1] + c.DMStem[2]
		case "dead/leaf":
			have = c.DMLeaf[3]
		case "dead/stem":
			have = c.DMStem[3]
		default:
			return fmt.Errorf("species %q: %w: unknown pool %s/%s", s.Name, ErrInvalidConfig, r.Pool, r.Part)
		}
		if have-r.Amount <= 0 {
			s.log.Warn("removal larger than pool, skipped",
				"pool", r.Pool, "part", r.Part, "amount", r.Amount, "available", have)
			continue
		}
		if err := s.RemoveFractionDM(divide(r.Amount, have, 0), r.Pool, r.Part); err != nil {
			return err
		}
	}
	return s.RefreshAfterRemove()
}

// RefreshAfterRemove updates the derived values after RemoveFractionDM.
func (s *Species) RefreshAfterRemove() error {
	s.day.FractionHarvested = divide(s.day.Defoliated, s.cur.StandingDM()+s.day.Defoliated, 0)
	if err := s.updateAggregated(); err != nil {
		return err
	}
	s.evaluateLAI()
	s.evaluateDigestibility()
	return nil
}
