package pasture

import "fmt"

// Checkpoint is the state a species carries from one day to the next,
// enough to resume it in a fresh process.
type Checkpoint struct {
	Pools Pools `json:"pools"`
	Alive bool  `json:"alive"`

	Stage        int `json:"stage"`
	DaysEmerged  int `json:"days_emerged"`
	DaysAnthesis int `json:"days_anthesis"`

	RootDepth float64 `json:"root_depth"` // mm

	NRemobilised   float64 `json:"n_remobilised"`
	CRemobilisable float64 `json:"c_remobilisable"`
	NLuxury2       float64 `json:"n_luxury2"`
	NLuxury3       float64 `json:"n_luxury3"`
	GLFN           float64 `json:"glf_n"`

	HeatEffect float64 `json:"heat_effect"`
	HeatAccum  float64 `json:"heat_accum"`
	ColdEffect float64 `json:"cold_effect"`
	ColdAccum  float64 `json:"cold_accum"`
}

// Checkpoint returns the carried-over state at the end of the current day.
func (s *Species) Checkpoint() Checkpoint {
	return Checkpoint{
		Pools:          s.cur,
		Alive:          s.alive,
		Stage:          s.phen.stage,
		DaysEmerged:    s.phen.daysEmerged,
		DaysAnthesis:   s.phen.daysAnthesis,
		RootDepth:      s.roots.depth,
		NRemobilised:   s.nRemobilised,
		CRemobilisable: s.cRemobilisable,
		NLuxury2:       s.nLuxury2,
		NLuxury3:       s.nLuxury3,
		GLFN:           s.glfN,
		HeatEffect:     s.heat.effect,
		HeatAccum:      s.heat.accum,
		ColdEffect:     s.cold.effect,
		ColdAccum:      s.cold.accum,
	}
}

// Restore replaces the state with a checkpoint and re-derives the canopy
// and root zone from it.
func (s *Species) Restore(c Checkpoint) error {
	if name, v, neg := c.Pools.Negative(); neg {
		return fmt.Errorf("species %q: restore: pool %s is negative (%g)", s.Name, name, v)
	}
	if c.RootDepth < 0 {
		return fmt.Errorf("species %q: restore: negative root depth", s.Name)
	}
	if c.Stage < stageDormant || c.Stage > stageReproductive {
		return fmt.Errorf("species %q: restore: unknown stage %d", s.Name, c.Stage)
	}

	s.cur = c.Pools
	s.prev = c.Pools
	s.alive = c.Alive
	s.phen.stage = c.Stage
	s.phen.daysEmerged = c.DaysEmerged
	s.phen.daysAnthesis = c.DaysAnthesis
	s.nRemobilised = c.NRemobilised
	s.cRemobilisable = c.CRemobilisable
	s.nLuxury2 = c.NLuxury2
	s.nLuxury3 = c.NLuxury3
	s.glfN = c.GLFN
	s.heat = stressState{effect: c.HeatEffect, accum: c.HeatAccum}
	s.cold = stressState{effect: c.ColdEffect, accum: c.ColdAccum}
	s.day = Daily{}

	s.roots.depth = c.RootDepth
	if err := s.updateRootProfile(); err != nil {
		return err
	}
	s.evaluateLAI()
	s.evaluateDigestibility()
	return nil
}
