package sward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/pasture"
	"github.com/pthm-cable/sward/telemetry"
)

// waterBalanceTol is the allowed error (mm) in the daily soil water balance.
const waterBalanceTol = 1e-6

// dayFluxes holds the soil fluxes of one day.
type dayFluxes struct {
	rain, runoff, drainage, evaporation float64
	mineralised                         float64
	cover                               float64
}

// Step grows the sward for one day. It returns false once the weather runs
// out. A *pasture.MassBalanceError stops the run.
//
// Management runs after each plant starts its day and before growth, so
// today's defoliation drives today's stolon turnover.
func (s *Sward) Step() (bool, error) {
	s.perf.StartDay()
	s.gatherPlants()
	w0 := s.soil.Balance().Water

	// Soil: rain in, drainage out, residue decomposition
	s.perf.StartPhase(telemetry.PhaseSoil)
	var fx dayFluxes
	fx.rain = s.weather.Rain()
	fx.runoff = s.soil.Infiltrate(fx.rain)
	fx.drainage = s.soil.Drain()
	fx.mineralised = s.soil.Decompose(s.weather.Day().Tmean())

	s.perf.StartPhase(telemetry.PhaseManagement)
	s.startPlantDay()
	if err := s.manage(); err != nil {
		return false, s.fail(err)
	}

	// Microclimate: share light and water demand among the canopies
	s.perf.StartPhase(telemetry.PhaseMicroclimate)
	fx.cover = s.partitionLight()

	// Potential growth does not touch the soil
	s.perf.StartPhase(telemetry.PhasePotential)
	if err := s.growEach((*pasture.Species).PotentialGrowth); err != nil {
		return false, s.fail(err)
	}

	if s.arb != nil {
		if err := s.growArbitrated(); err != nil {
			return false, s.fail(err)
		}
	} else if err := s.growSelf(); err != nil {
		return false, s.fail(err)
	}
	fx.evaporation = s.soil.Evaporate(s.weather.PET(), fx.cover)

	if err := s.checkWaterBalance(w0, fx); err != nil {
		return false, s.fail(err)
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.recordTelemetry(fx)
	s.endPerfDay()

	s.day++
	if !s.weather.Advance() {
		return false, nil
	}
	return true, nil
}

// Run grows the sward for up to days days, stopping early at the end of
// the weather or when ctx is done.
func (s *Sward) Run(ctx context.Context, days int) error {
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := s.Step()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

// startPlantDay clears yesterday's uptake and starts each plant's day.
func (s *Sward) startPlantDay() {
	if cap(s.plantTime) < len(s.plants) {
		s.plantTime = make([]time.Duration, len(s.plants))
	}
	s.plantTime = s.plantTime[:len(s.plants)]
	clear(s.plantTime)
	for _, p := range s.plants {
		p.uptake.Clear()
		p.plant.Species.DailyInit()
	}
}

// partitionLight hands each plant its share of the radiation and potential
// evapotranspiration. It returns the sward cover.
func (s *Sward) partitionLight() float64 {
	canopies := make([]pasture.CanopyDescriptor, len(s.plants))
	micro := make([]components.Microclimate, len(s.plants))
	for i, p := range s.plants {
		canopies[i] = p.plant.Species.Canopy()
	}
	cover := PartitionLight(canopies, s.weather.Radn(), s.weather.PET(), micro)
	for i, p := range s.plants {
		*p.micro = micro[i]
		p.plant.Species.SetLightProfile([]float64{micro[i].InterceptedRadn})
		p.plant.Species.SetPotentialEP(micro[i].PotentialEP)
	}
	return cover
}

// growEach runs one growth phase over all plants in the worker pool and
// adds the time spent on each plant. Each worker writes only the time slot
// of its own plants.
func (s *Sward) growEach(phase func(*pasture.Species) error) error {
	return s.parallel.run(len(s.plants), func(i int) error {
		return s.timed(i, phase)
	})
}

func (s *Sward) timed(i int, phase func(*pasture.Species) error) error {
	t0 := time.Now()
	err := phase(s.plants[i].plant.Species)
	s.plantTime[i] += time.Since(t0)
	return err
}

// endPerfDay hands the plant timings to the perf collector and closes the
// day.
func (s *Sward) endPerfDay() {
	for i, p := range s.plants {
		if i < len(s.plantTime) {
			s.perf.RecordSpecies(p.plant.Species.Name, s.plantTime[i])
		}
	}
	s.perf.EndDay()
}

// growArbitrated shares the soil among the plants, then lets every plant
// take its share concurrently.
func (s *Sward) growArbitrated() error {
	s.perf.StartPhase(telemetry.PhaseArbitrate)
	s.arbitrateWater()

	s.perf.StartPhase(telemetry.PhaseWaterLimited)
	if err := s.growEach((*pasture.Species).WaterLimitedGrowth); err != nil {
		return err
	}
	s.flushViews()

	s.perf.StartPhase(telemetry.PhaseArbitrate)
	s.arbitrateN()

	s.perf.StartPhase(telemetry.PhaseActual)
	if err := s.growEach((*pasture.Species).ActualGrowth); err != nil {
		return err
	}
	s.flushViews()
	return nil
}

// growSelf lets each plant take up from the soil in sowing order, each
// seeing what the plants before it left.
func (s *Sward) growSelf() error {
	s.perf.StartPhase(telemetry.PhaseWaterLimited)
	for i, p := range s.plants {
		if err := s.timed(i, (*pasture.Species).WaterLimitedGrowth); err != nil {
			return err
		}
		p.view.flush()
	}
	s.perf.StartPhase(telemetry.PhaseActual)
	for i, p := range s.plants {
		if err := s.timed(i, (*pasture.Species).ActualGrowth); err != nil {
			return err
		}
		p.view.flush()
	}
	return nil
}

func (s *Sward) arbitrateWater() {
	potential := make([][]float64, len(s.plants))
	lowerLimit := make([][]float64, len(s.plants))
	for i, p := range s.plants {
		sp := p.plant.Species
		if sp.IsAlive() {
			potential[i] = sp.PotentialWaterUptake()
		} else {
			potential[i] = make([]float64, s.soil.NumLayers())
		}
		lowerLimit[i] = sp.Roots().LowerLimit
	}
	ShareWater(potential, lowerLimit, s.soil.Water())
	for i, p := range s.plants {
		copy(p.uptake.Water, potential[i])
		p.uptake.WaterResolved = true
	}
}

func (s *Sward) arbitrateN() {
	nh4 := make([][]float64, len(s.plants))
	no3 := make([][]float64, len(s.plants))
	for i, p := range s.plants {
		sp := p.plant.Species
		if sp.IsAlive() {
			nh4[i], no3[i] = sp.PotentialNUptake()
		} else {
			nh4[i] = make([]float64, s.soil.NumLayers())
			no3[i] = make([]float64, s.soil.NumLayers())
		}
	}
	ShareN(nh4, no3, s.soil.NH4(), s.soil.NO3())
	for i, p := range s.plants {
		copy(p.uptake.NH4, nh4[i])
		copy(p.uptake.NO3, no3[i])
		p.uptake.NResolved = true
	}
}

// flushViews applies the held soil changes in sowing order.
func (s *Sward) flushViews() {
	for _, p := range s.plants {
		p.view.flush()
	}
}

// checkWaterBalance compares the change in soil water with the day's
// fluxes.
func (s *Sward) checkWaterBalance(w0 float64, fx dayFluxes) error {
	uptake := 0.0
	for _, p := range s.plants {
		uptake += p.plant.Species.Today().WaterUptake
	}
	want := w0 + fx.rain - fx.runoff - fx.drainage - fx.evaporation - uptake
	got := s.soil.Balance().Water
	if math.Abs(got-want) > waterBalanceTol {
		return &pasture.MassBalanceError{Species: "sward", Check: "soil water", Got: got, Want: want}
	}
	return nil
}

// fail logs a run-stopping error and records mass balance failures in the
// event log.
func (s *Sward) fail(err error) error {
	s.endPerfDay()
	var mb *pasture.MassBalanceError
	if errors.As(err, &mb) {
		s.logEvent(telemetry.Event{
			Type:    telemetry.EventMassBalance,
			Species: mb.Species,
			Amount:  mb.Got - mb.Want,
			Detail:  mb.Check,
		})
	}
	s.log.Error("day failed", "day", s.day, "date", s.Date(), "error", err)
	return fmt.Errorf("day %d: %w", s.day, err)
}
