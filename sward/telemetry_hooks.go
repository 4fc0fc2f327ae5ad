package sward

import (
	"fmt"
	"time"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/telemetry"
)

// recordTelemetry fills the day's reports and feeds them to the collector,
// the sinks and the bookmark detector.
func (s *Sward) recordTelemetry(fx dayFluxes) {
	date := s.weather.Today()
	day := s.day + 1
	for i, p := range s.plants {
		p.report.Fill(date, p.plant.Species)
		s.reports[i] = *p.report
	}

	s.collector.RecordDay(s.reports, telemetry.SoilFluxes{
		Drainage:    fx.drainage,
		Runoff:      fx.runoff,
		Evaporation: fx.evaporation,
		Mineralised: fx.mineralised,
	})
	s.lifetimes.Record(s.reports)

	if err := s.output.WriteDaily(s.reports); err != nil {
		s.log.Error("failed to write daily report", "error", err)
	}
	s.sqlite.WriteDaily(s.reports)
	if s.dailyCallback != nil {
		s.dailyCallback(day, s.Reports())
	}

	for _, bm := range s.bookmarks.Check(day, s.reports) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.log.Error("failed to write bookmark", "error", err)
		}
		s.sqlite.WriteBookmark(bm)
		s.logEvent(telemetry.Event{
			Type:    telemetry.EventBookmark,
			Species: bm.Species,
			Detail:  string(bm.Type) + ": " + bm.Description,
		})
		if s.snapshotDir != "" {
			s.saveSnapshot(day, date, &bm)
		}
	}

	s.flushTelemetry(day, date)
}

// flushTelemetry closes the stats window when it is complete.
func (s *Sward) flushTelemetry(day int, date time.Time) {
	if !s.collector.ShouldFlush(day) {
		return
	}

	stats := s.collector.Flush(day, date, s.reports, s.samplePools())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
		s.logSwardState()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndDay); err != nil {
		s.log.Error("failed to write perf", "error", err)
	}
	s.sqlite.WriteWindow(stats)

	if s.snapshotDir != "" {
		s.saveSnapshot(day, date, nil)
	}
}

// samplePools totals the plant and soil pools for mass balance tracking.
func (s *Sward) samplePools() telemetry.Pools {
	var pools telemetry.Pools
	for _, p := range s.plants {
		st := p.plant.Species.State()
		pools.PlantDM += st.TotalDM()
		pools.PlantN += st.TotalN()
	}
	b := s.soil.Balance()
	pools.SoilWater = b.Water
	pools.MineralN = b.NH4 + b.NO3
	pools.SurfaceDM = b.SurfaceDM
	pools.SurfaceN = b.SurfaceN
	pools.FOMDM = b.FOMDM
	pools.FOMN = b.FOMN
	return pools
}

// saveSnapshot creates and saves a snapshot of the day being recorded.
func (s *Sward) saveSnapshot(day int, date time.Time, bookmark *telemetry.Bookmark) {
	snapshot := s.createSnapshot(day, date, bookmark)

	path, err := telemetry.SaveSnapshot(snapshot, s.snapshotDir)
	if err != nil {
		s.log.Error("failed to save snapshot", "error", err)
		return
	}
	s.sqlite.RecordSnapshot(snapshot.Day, snapshot.Date, path)
	s.log.Info("snapshot saved", "path", path, "day", snapshot.Day)
}

// CreateSnapshot captures the state at the end of the last day grown. Call
// it between steps.
func (s *Sward) CreateSnapshot() *telemetry.Snapshot {
	s.gatherPlants()
	return s.createSnapshot(s.day, s.weather.Today().AddDate(0, 0, -1), nil)
}

// createSnapshot captures the current state as the end of the given day.
func (s *Sward) createSnapshot(day int, date time.Time, bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Seed:     s.cfg.Weather.Seed,
		Day:      day,
		Date:     date.Format(config.DateLayout),
		Soil:     s.soil.State(),
		Bookmark: bookmark,
	}

	for _, p := range s.plants {
		sp := p.plant.Species
		state := telemetry.SpeciesState{Name: sp.Name, State: sp.Checkpoint()}
		if ls := s.lifetimes.Get(sp.Name); ls != nil {
			cp := *ls
			state.Lifetime = &cp
		}
		snapshot.Species = append(snapshot.Species, state)
	}
	return snapshot
}

// Restore resumes the sward from a snapshot taken in a run with the same
// configuration. The next step grows the day after the snapshot date.
func (s *Sward) Restore(snap *telemetry.Snapshot) error {
	date, err := time.Parse(config.DateLayout, snap.Date)
	if err != nil {
		return fmt.Errorf("sward: restore: %w", err)
	}
	if snap.Seed != s.cfg.Weather.Seed && s.cfg.Weather.File == "" {
		s.log.Warn("snapshot taken with a different weather seed", "snapshot", snap.Seed, "config", s.cfg.Weather.Seed)
	}

	s.gatherPlants()
	byName := make(map[string]plantRef, len(s.plants))
	for _, p := range s.plants {
		byName[p.plant.Species.Name] = p
	}
	for _, st := range snap.Species {
		if _, ok := byName[st.Name]; !ok {
			return fmt.Errorf("sward: restore: species %q is not sown", st.Name)
		}
	}

	if err := s.weather.Seek(date.AddDate(0, 0, 1)); err != nil {
		return fmt.Errorf("sward: restore: %w", err)
	}
	if err := s.soil.Restore(snap.Soil); err != nil {
		return err
	}
	for _, st := range snap.Species {
		if err := byName[st.Name].plant.Species.Restore(st.State); err != nil {
			return err
		}
		if st.Lifetime != nil {
			s.lifetimes.Restore(st.Name, *st.Lifetime)
		}
	}

	s.day = snap.Day
	s.collector.Reset(s.day)
	s.nextOp = 0
	s.skipPastOperations()
	s.log.Info("restored", "day", s.day, "date", snap.Date)
	return nil
}
