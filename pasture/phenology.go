package pasture

import (
	"time"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/traits"
)

// Phenological stages of an annual. Perennials stay vegetative.
const (
	stageDormant      = 0 // before emergence, no growth
	stageVegetative   = 1 // emergence to anthesis
	stageReproductive = 2 // anthesis to maturity
)

type phenology struct {
	stage         int
	daysEmerged   int // days since emergence
	daysAnthesis  int // days since anthesis
	daysEmgToAnth int
}

func (ph *phenology) reset() {
	ph.stage = stageDormant
	ph.daysEmerged = 0
	ph.daysAnthesis = 0
}

// daysEmergenceToAnthesis approximates the days between the emergence and
// anthesis dates using 30.5-day months, wrapping across the year end.
func daysEmergenceToAnthesis(p *config.SpeciesConfig) int {
	months := p.AnthesisMonth - p.EmergenceMonth
	if months < 0 {
		months += 12
	}
	return int(30.5*float64(months) + float64(p.AnthesisDay-p.EmergenceDay))
}

func isDate(t time.Time, day, month int) bool {
	return t.Day() == day && int(t.Month()) == month
}

// advancePhenology moves an annual through its stages for today. Perennials
// are unaffected.
func (s *Species) advancePhenology() {
	if !s.Traits.Has(traits.Annual) {
		return
	}
	p := &s.p
	today := s.clock.Today()
	ph := &s.phen
	switch ph.stage {
	case stageDormant:
		if isDate(today, p.EmergenceDay, p.EmergenceMonth) {
			ph.stage = stageVegetative
			ph.daysEmerged = 0
			s.log.Debug("emerged", "date", today.Format(config.DateLayout))
		}
	case stageVegetative:
		ph.daysEmerged++
		if isDate(today, p.AnthesisDay, p.AnthesisMonth) {
			ph.stage = stageReproductive
			ph.daysAnthesis = 0
			s.log.Debug("anthesis", "date", today.Format(config.DateLayout))
		}
	case stageReproductive:
		ph.daysAnthesis++
		if ph.daysAnthesis >= p.DaysToMature {
			ph.reset()
			s.log.Debug("matured", "date", today.Format(config.DateLayout))
		}
	}
}

// annualGrowthReduction scales potential growth of an annual: growth ramps
// up over the 60 days after emergence and declines to zero at maturity.
func (s *Species) annualGrowthReduction() float64 {
	ph := &s.phen
	switch ph.stage {
	case stageVegetative:
		if ph.daysEmerged < 60 {
			return 0.5 + 0.5*float64(ph.daysEmerged)/60
		}
	case stageReproductive:
		if s.p.DaysToMature > 0 {
			return clamp01(1 - float64(ph.daysAnthesis)/float64(s.p.DaysToMature))
		}
	}
	return 1
}

// Stage returns the phenological stage: 0 dormant, 1 vegetative,
// 2 reproductive.
func (s *Species) Stage() int { return s.phen.stage }
