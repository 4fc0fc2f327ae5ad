package sward

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/pasture"
	"github.com/pthm-cable/sward/telemetry"
)

// manage applies the schedule entries due today.
func (s *Sward) manage() error {
	today := s.weather.Today()
	for s.nextOp < len(s.schedule) && !s.schedule[s.nextOp].Date.After(today) {
		op := s.schedule[s.nextOp]
		s.nextOp++
		if err := s.apply(op); err != nil {
			return fmt.Errorf("management %q: %w", op, err)
		}
	}
	s.flushViews()
	return nil
}

// apply runs one operation on the named species, or on the whole sward.
func (s *Sward) apply(op Operation) error {
	if op.Species == "" {
		switch op.Action {
		case GrazeResidue, GrazeRemove:
			return s.grazeSward(op)
		}
		for _, p := range s.plants {
			if err := s.applyTo(p, op); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range s.plants {
		if p.plant.Species.Name == op.Species {
			return s.applyTo(p, op)
		}
	}
	return fmt.Errorf("species %q is not sown", op.Species)
}

// grazeSward grazes the sward as a whole. The DM to remove is worked out
// from the total standing DM and split among the species by their
// harvestable DM.
func (s *Sward) grazeSward(op Operation) error {
	harvestable := make([]float64, len(s.plants))
	var standing, total float64
	for i, p := range s.plants {
		sp := p.plant.Species
		if !sp.IsAlive() {
			continue
		}
		st := sp.State()
		standing += st.StandingDM()
		harvestable[i] = sp.HarvestableWt()
		total += harvestable[i]
	}

	required := op.Amount
	if op.Action == GrazeResidue {
		required = math.Max(0, standing-op.Amount)
	}
	required = math.Min(required, total)
	if required <= 0 {
		return nil
	}
	for i, p := range s.plants {
		if harvestable[i] <= 0 {
			continue
		}
		err := s.removal(p, op, func(sp *pasture.Species) error {
			return sp.RemoveDM(required * harvestable[i] / total)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// applyTo runs an operation on one species.
func (s *Sward) applyTo(p plantRef, op Operation) error {
	switch op.Action {
	case GrazeResidue:
		return s.removal(p, op, func(sp *pasture.Species) error {
			return sp.Graze(pasture.SetResidueAmount, op.Amount)
		})
	case GrazeRemove:
		return s.removal(p, op, func(sp *pasture.Species) error {
			return sp.Graze(pasture.SetRemoveAmount, op.Amount)
		})
	case Cut:
		return s.removal(p, op, func(sp *pasture.Species) error {
			return sp.RemoveDM(op.Amount * sp.HarvestableWt())
		})
	case Kill:
		sp := p.plant.Species
		if !sp.IsAlive() {
			return nil
		}
		if err := sp.Kill(op.Amount); err != nil {
			return err
		}
		Logf("[%s] kill %s: %.0f%%", s.Date().Format(config.DateLayout), sp.Name, op.Amount*100)
		s.logEvent(telemetry.Event{Type: telemetry.EventKill, Species: sp.Name, Amount: op.Amount})
		return nil
	}
	return fmt.Errorf("unknown action %d", int(op.Action))
}

// removal runs a DM removal and records what it took.
func (s *Sward) removal(p plantRef, op Operation, remove func(*pasture.Species) error) error {
	sp := p.plant.Species
	before := sp.Today().Defoliated
	if err := remove(sp); err != nil {
		return err
	}
	removed := sp.Today().Defoliated - before
	if removed <= 0 {
		return nil
	}

	typ := telemetry.EventGraze
	if op.Action == Cut {
		typ = telemetry.EventCut
	}
	st := sp.State()
	logRemoval(s.Date().Format(config.DateLayout), op.Action.String(), sp.Name, removed, st.ShootDM())
	s.logEvent(telemetry.Event{Type: typ, Species: sp.Name, Amount: removed, Detail: op.String()})
	return nil
}
