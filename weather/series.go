package weather

import (
	"fmt"
	"time"

	"github.com/pthm-cable/sward/config"
)

// Series steps through a run of met days. It serves as both the simulation
// clock and the daily weather for the plants.
type Series struct {
	days     []Day
	i        int
	latitude float64
	co2      float64
}

// NewSeries positions a series on the given start date.
func NewSeries(days []Day, start time.Time, latitude, co2 float64) (*Series, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("weather: no days")
	}
	i := int(start.Sub(days[0].Date).Hours() / 24)
	if i < 0 || i >= len(days) {
		return nil, fmt.Errorf("weather: start %s outside %s to %s",
			start.Format(config.DateLayout),
			days[0].Date.Format(config.DateLayout),
			days[len(days)-1].Date.Format(config.DateLayout))
	}
	return &Series{days: days, i: i, latitude: latitude, co2: co2}, nil
}

// Load builds the series configured in cfg: the met file when one is named,
// otherwise the synthetic generator over the simulation period.
func Load(cfg *config.Config) (*Series, error) {
	start := cfg.Derived.StartDate
	w := cfg.Weather
	var days []Day
	if w.File != "" {
		var err error
		if days, err = ReadFile(w.File); err != nil {
			return nil, err
		}
	} else {
		days = Synthetic(w, start, cfg.Simulation.Days)
	}
	return NewSeries(days, start, w.Latitude, w.CO2)
}

// Seek positions the series on the given date.
func (s *Series) Seek(date time.Time) error {
	i := int(date.Sub(s.days[0].Date).Hours() / 24)
	if i < 0 || i >= len(s.days) {
		return fmt.Errorf("weather: %s outside the data", date.Format(config.DateLayout))
	}
	s.i = i
	return nil
}

// Advance moves to the next day. It returns false at the end of the data.
func (s *Series) Advance() bool {
	if s.i+1 >= len(s.days) {
		return false
	}
	s.i++
	return true
}

// Remaining returns the days left after today.
func (s *Series) Remaining() int { return len(s.days) - 1 - s.i }

// Day returns today's record.
func (s *Series) Day() Day { return s.days[s.i] }

// Today returns the current date.
func (s *Series) Today() time.Time { return s.days[s.i].Date }

func (s *Series) MaxT() float64 { return s.days[s.i].MaxT }
func (s *Series) MinT() float64 { return s.days[s.i].MinT }
func (s *Series) VP() float64   { return s.days[s.i].VP }
func (s *Series) Radn() float64 { return s.days[s.i].Radn }
func (s *Series) Rain() float64 { return s.days[s.i].Rain }

// CO2 returns the measured concentration, or the configured one.
func (s *Series) CO2() float64 {
	if c := s.days[s.i].CO2; c > 0 {
		return c
	}
	return s.co2
}

// DayLength returns today's day length at the series latitude.
func (s *Series) DayLength(sunAngle float64) float64 {
	return DayLength(s.latitude, s.Today().YearDay(), sunAngle)
}

// PET returns today's potential evapotranspiration (mm).
func (s *Series) PET() float64 {
	d := s.days[s.i]
	return PET(d.Radn, d.Tmean())
}
