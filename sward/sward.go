// Package sward grows a mixed pasture of several species over one shared
// soil. Each sown species is an entity in an ECS world; the daily phases run
// over the plants in a worker pool and their soil changes are applied in
// sowing order.
package sward

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/pasture"
	"github.com/pthm-cable/sward/soil"
	"github.com/pthm-cable/sward/telemetry"
	"github.com/pthm-cable/sward/weather"
)

// Options configures the optional outputs of a sward run.
type Options struct {
	Logger *slog.Logger

	Output *telemetry.OutputManager // CSV sinks, may be nil
	SQLite *telemetry.SQLiteSink    // may be nil
	Events *telemetry.EventLog      // may be nil

	// SnapshotDir receives a snapshot at every bookmark and window flush.
	// Empty disables snapshots.
	SnapshotDir string

	LogStats      bool // log window stats and a sward summary
	StatsCallback func(telemetry.WindowStats)
	DailyCallback func(day int, reports []components.Report)
}

// plantRef holds the component pointers of one plant for the current day.
// Pointers stay valid while no entity is added or removed.
type plantRef struct {
	entity ecs.Entity
	plant  *components.Plant
	micro  *components.Microclimate
	uptake *components.Uptake
	report *components.Report
	view   *soilView
}

// Sward holds the complete simulation state.
type Sward struct {
	cfg *config.Config
	log *slog.Logger

	world       *ecs.World
	plantMapper *ecs.Map4[components.Plant, components.Microclimate, components.Uptake, components.Report]
	plantFilter *ecs.Filter4[components.Plant, components.Microclimate, components.Uptake, components.Report]

	soil    *soil.Profile
	weather *weather.Series
	arb     *Arbitrator // nil when each plant takes up on its own

	views   map[string]*soilView
	plants  []plantRef
	reports []components.Report

	schedule []Operation
	nextOp   int

	parallel  *parallelState
	plantTime []time.Duration // growth time per plant today

	day int // days completed since the start date

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	lifetimes     *telemetry.LifetimeTracker
	output        *telemetry.OutputManager
	sqlite        *telemetry.SQLiteSink
	events        *telemetry.EventLog
	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	dailyCallback func(day int, reports []components.Report)
}

// New builds a sward from the configuration: the soil profile, the weather
// series and one plant per sown species.
func New(cfg *config.Config, opts Options) (*Sward, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	names := cfg.Sward.Sow
	if len(names) == 0 {
		return nil, fmt.Errorf("sward: no species sown")
	}
	prof, err := soil.New(cfg.Soil, names...)
	if err != nil {
		return nil, err
	}
	prof.SetLogger(logger)

	series, err := weather.Load(cfg)
	if err != nil {
		return nil, err
	}

	schedule, err := ParseSchedule(cfg.Management.Schedule)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	s := &Sward{
		cfg:         cfg,
		log:         logger,
		world:       world,
		plantMapper: ecs.NewMap4[components.Plant, components.Microclimate, components.Uptake, components.Report](world),
		plantFilter: ecs.NewFilter4[components.Plant, components.Microclimate, components.Uptake, components.Report](world),
		soil:        prof,
		weather:     series,
		views:       make(map[string]*soilView, len(names)),
		schedule:    schedule,
		parallel:    newParallelState(cfg.Simulation.Workers),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Bookmarks, cfg.Telemetry.BookmarkHistorySize),
		lifetimes:     telemetry.NewLifetimeTracker(),
		output:        opts.Output,
		sqlite:        opts.SQLite,
		events:        opts.Events,
		snapshotDir:   opts.SnapshotDir,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		dailyCallback: opts.DailyCallback,
	}
	if cfg.Sward.Arbitrator {
		s.arb = NewArbitrator()
	}

	for _, op := range schedule {
		if op.Species != "" && !contains(names, op.Species) {
			return nil, fmt.Errorf("sward: schedule %q: species %q is not sown", op, op.Species)
		}
	}
	s.skipPastOperations()

	for i, name := range names {
		if err := s.sow(i, name); err != nil {
			return nil, err
		}
	}
	s.reports = make([]components.Report, len(names))
	return s, nil
}

// sow creates the plant entity for one species.
func (s *Sward) sow(order int, name string) error {
	spCfg, ok := s.cfg.SpeciesByName(name)
	if !ok {
		return fmt.Errorf("sward: unknown species %q", name)
	}
	view := newSoilView(s.soil, name)
	opts := pasture.Options{
		Soil:          view,
		Weather:       s.weather,
		Clock:         s.weather,
		OrganicMatter: view,
		Logger:        s.log,
	}
	if s.arb != nil {
		opts.Arbitrator = s.arb
	}
	sp, err := pasture.New(spCfg, opts)
	if err != nil {
		return err
	}

	n := s.soil.NumLayers()
	plant := components.Plant{Species: sp, Order: order}
	micro := components.Microclimate{}
	uptake := components.Uptake{
		Water: make([]float64, n),
		NH4:   make([]float64, n),
		NO3:   make([]float64, n),
	}
	report := components.Report{}
	s.plantMapper.NewEntity(&plant, &micro, &uptake, &report)
	s.views[name] = view

	st := sp.State()
	s.lifetimes.Register(name, s.day)
	s.logEvent(telemetry.Event{
		Type:    telemetry.EventSow,
		Species: name,
		Amount:  st.TotalDM(),
	})
	s.log.Info("sown", "species", name, "order", order, "uptake", sp.Uptake().String())
	return nil
}

// gatherPlants collects the component pointers of every plant in sowing
// order and binds their uptake to the arbitrator.
func (s *Sward) gatherPlants() {
	s.plants = s.plants[:0]
	query := s.plantFilter.Query()
	for query.Next() {
		plant, micro, uptake, report := query.Get()
		s.plants = append(s.plants, plantRef{
			entity: query.Entity(),
			plant:  plant,
			micro:  micro,
			uptake: uptake,
			report: report,
			view:   s.views[plant.Species.Name],
		})
	}
	sort.Slice(s.plants, func(i, j int) bool {
		return s.plants[i].plant.Order < s.plants[j].plant.Order
	})
	if s.arb != nil {
		for _, p := range s.plants {
			s.arb.bind(p.plant.Species.Name, p.uptake)
		}
	}
}

// skipPastOperations drops schedule entries dated before the current day.
func (s *Sward) skipPastOperations() {
	today := s.weather.Today()
	for s.nextOp < len(s.schedule) && s.schedule[s.nextOp].Date.Before(today) {
		s.nextOp++
	}
}

// Day returns the number of days grown.
func (s *Sward) Day() int { return s.day }

// Date returns the date of the next day to grow.
func (s *Sward) Date() time.Time { return s.weather.Today() }

// Soil returns the shared soil profile.
func (s *Sward) Soil() *soil.Profile { return s.soil }

// Reports returns the plant reports of the last day grown, in sowing order.
func (s *Sward) Reports() []components.Report {
	return append([]components.Report(nil), s.reports...)
}

// Lifetimes returns the per-species lifetime totals.
func (s *Sward) Lifetimes() *telemetry.LifetimeTracker { return s.lifetimes }

// Species returns the growth engine of a sown species.
func (s *Sward) Species(name string) (*pasture.Species, bool) {
	s.gatherPlants()
	for _, p := range s.plants {
		if p.plant.Species.Name == name {
			return p.plant.Species, true
		}
	}
	return nil, false
}

// Names returns the sown species in sowing order.
func (s *Sward) Names() []string {
	s.gatherPlants()
	names := make([]string, len(s.plants))
	for i, p := range s.plants {
		names[i] = p.plant.Species.Name
	}
	return names
}

// Close stops the worker pool and writes the lifetime totals. The sinks
// passed in Options stay open.
func (s *Sward) Close() error {
	s.parallel.stopWorkers()
	return s.output.WriteLifetimes(s.lifetimes)
}

func (s *Sward) logEvent(e telemetry.Event) {
	e.Day = s.day
	e.Date = s.weather.Today().Format(config.DateLayout)
	if err := s.events.Write(e); err != nil {
		s.log.Error("failed to write event", "error", err)
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
