package pasture

// Pools holds the DM and N pools of one species (kg/ha).
// Index k of a staged array is maturity stage k+1: leaf and stem run from
// developing (1) through mature, senescing and dead (4); stolons have no
// dead stage. Roots are a single pool.
type Pools struct {
	DMLeaf   [4]float64
	DMStem   [4]float64
	DMStolon [3]float64
	DMRoot   float64

	NLeaf   [4]float64
	NStem   [4]float64
	NStolon [3]float64
	NRoot   float64
}

// conc returns n/dm, or 0 when there is no DM.
func conc(n, dm float64) float64 {
	if dm <= 0 {
		return 0
	}
	return n / dm
}

func sum3(a [3]float64) float64 { return a[0] + a[1] + a[2] }

func sum4(a [4]float64) float64 { return a[0] + a[1] + a[2] + a[3] }

// LeafDM returns the DM of all leaf stages.
func (p Pools) LeafDM() float64 { return sum4(p.DMLeaf) }

// StemDM returns the DM of all stem stages.
func (p Pools) StemDM() float64 { return sum4(p.DMStem) }

// StolonDM returns the DM of all stolon stages.
func (p Pools) StolonDM() float64 { return sum3(p.DMStolon) }

// ShootDM is leaf + stem + stolon.
func (p Pools) ShootDM() float64 { return p.LeafDM() + p.StemDM() + p.StolonDM() }

// GreenDM is all live shoot tissue (stages 1-3 of leaf and stem, all stolons).
func (p Pools) GreenDM() float64 {
	return p.DMLeaf[0] + p.DMLeaf[1] + p.DMLeaf[2] +
		p.DMStem[0] + p.DMStem[1] + p.DMStem[2] +
		p.StolonDM()
}

// DeadDM is leaf and stem stage 4.
func (p Pools) DeadDM() float64 { return p.DMLeaf[3] + p.DMStem[3] }

// TotalDM is shoot + root.
func (p Pools) TotalDM() float64 { return p.ShootDM() + p.DMRoot }

// StandingDM is the leaf and stem DM above ground; stolons are not grazeable.
func (p Pools) StandingDM() float64 { return p.LeafDM() + p.StemDM() }

// StandingLiveDM is leaf and stem stages 1-3.
func (p Pools) StandingLiveDM() float64 {
	return p.DMLeaf[0] + p.DMLeaf[1] + p.DMLeaf[2] + p.DMStem[0] + p.DMStem[1] + p.DMStem[2]
}

// StandingDeadDM is leaf and stem stage 4.
func (p Pools) StandingDeadDM() float64 { return p.DeadDM() }

// ShootN is the N in all shoot pools.
func (p Pools) ShootN() float64 { return sum4(p.NLeaf) + sum4(p.NStem) + sum3(p.NStolon) }

// GreenN is the N in the live shoot pools.
func (p Pools) GreenN() float64 {
	return p.NLeaf[0] + p.NLeaf[1] + p.NLeaf[2] +
		p.NStem[0] + p.NStem[1] + p.NStem[2] +
		sum3(p.NStolon)
}

// DeadN is the N in leaf and stem stage 4.
func (p Pools) DeadN() float64 { return p.NLeaf[3] + p.NStem[3] }

// TotalN is shoot + root N.
func (p Pools) TotalN() float64 { return p.ShootN() + p.NRoot }

// StandingLiveN is the N in leaf and stem stages 1-3.
func (p Pools) StandingLiveN() float64 {
	return p.NLeaf[0] + p.NLeaf[1] + p.NLeaf[2] + p.NStem[0] + p.NStem[1] + p.NStem[2]
}

// NconcLeaf returns the N concentration of a leaf stage (0-based).
func (p Pools) NconcLeaf(k int) float64 { return conc(p.NLeaf[k], p.DMLeaf[k]) }

// NconcStem returns the N concentration of a stem stage (0-based).
func (p Pools) NconcStem(k int) float64 { return conc(p.NStem[k], p.DMStem[k]) }

// NconcStolon returns the N concentration of a stolon stage (0-based).
func (p Pools) NconcStolon(k int) float64 { return conc(p.NStolon[k], p.DMStolon[k]) }

// NconcRoot returns the root N concentration.
func (p Pools) NconcRoot() float64 { return conc(p.NRoot, p.DMRoot) }

// NconcGreenLeaf is the N concentration of live leaves.
func (p Pools) NconcGreenLeaf() float64 {
	return conc(p.NLeaf[0]+p.NLeaf[1]+p.NLeaf[2], p.DMLeaf[0]+p.DMLeaf[1]+p.DMLeaf[2])
}

// negTol absorbs rounding in the stage transfers.
const negTol = 1e-6

// Negative reports the first pool holding a negative amount, if any.
func (p Pools) Negative() (string, float64, bool) {
	check := func(name string, v []float64) (string, float64, bool) {
		for i, x := range v {
			if x < -negTol {
				if len(v) > 1 {
					name += string(rune('1' + i))
				}
				return name, x, true
			}
		}
		return "", 0, false
	}
	pools := []struct {
		name string
		v    []float64
	}{
		{"dmLeaf", p.DMLeaf[:]}, {"dmStem", p.DMStem[:]}, {"dmStolon", p.DMStolon[:]},
		{"dmRoot", []float64{p.DMRoot}},
		{"nLeaf", p.NLeaf[:]}, {"nStem", p.NStem[:]}, {"nStolon", p.NStolon[:]},
		{"nRoot", []float64{p.NRoot}},
	}
	for _, pl := range pools {
		if name, x, ok := check(pl.name, pl.v); ok {
			return name, x, true
		}
	}
	return "", 0, false
}
